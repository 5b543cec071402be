package localask

import "strings"

// Intent maps a document ID to the phrases that select it.
type Intent struct {
	ID       string
	Keywords []string
}

// DefaultIntents is checked in order; the first keyword hit wins.
var DefaultIntents = []Intent{
	{ID: "about", Keywords: []string{"about yourself", "who are you", "introduce", "background"}},
	{ID: "education", Keywords: []string{"education", "study", "school", "college", "university"}},
	{ID: "skills", Keywords: []string{"skills", "expertise", "strengths", "what can you do"}},
	{ID: "project_mediscan", Keywords: []string{"mediscan", "medicine app", "ocr", "llm project"}},
	{ID: "projects_overview", Keywords: []string{"projects", "what projects", "things you built", "tell me about your projects"}},
	{ID: "project_text_summarizer", Keywords: []string{"summarizer", "text summarizer", "abstractive"}},
	{ID: "project_sign_language", Keywords: []string{"sign language", "gesture", "video"}},
	{ID: "experience_overview", Keywords: []string{"experience", "work experience", "past experiences", "how many years of work experience"}},
	{ID: "experience_infosys", Keywords: []string{"infosys", "internship", "data analyst"}},
	{ID: "experience_amazon_ml_school", Keywords: []string{"amazon ml", "summer school"}},
	{ID: "certifications", Keywords: []string{"certificate", "courses", "certifications"}},
	{ID: "contact", Keywords: []string{"contact", "email", "phone", "linkedin", "github"}},
}

// Classify returns the first intent whose keyword occurs in query.
func Classify(intents []Intent, query string) (string, bool) {
	q := strings.ToLower(query)
	for _, intent := range intents {
		for _, kw := range intent.Keywords {
			if strings.Contains(q, kw) {
				return intent.ID, true
			}
		}
	}
	return "", false
}
