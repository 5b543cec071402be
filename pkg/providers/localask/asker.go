// Package localask answers queries offline from a directory of <intent>.txt
// documents.
package localask

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/Baishnab1708/MyChatBot/pkg/adapters/backend"
	"github.com/Baishnab1708/MyChatBot/pkg/errorsx"
	"github.com/Baishnab1708/MyChatBot/pkg/logging"
	"github.com/spf13/afero"
)

// NoAnswer is returned when neither an intent nor the lexical fallback finds
// a document.
const NoAnswer = "Sorry, I don't have an answer for that."

type Config struct {
	Dir     string   `mapstructure:"dir"`
	Intents []Intent `mapstructure:"-"`
}

// Asker serves answers from documents loaded once from Dir.
type Asker struct {
	fs     afero.Fs
	cfg    Config
	logger *slog.Logger

	once    sync.Once
	loadErr error
	docs    map[string]string
	ids     []string
	terms   map[string]map[string]int
}

func New(fs afero.Fs, cfg Config) *Asker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if len(cfg.Intents) == 0 {
		cfg.Intents = DefaultIntents
	}
	return &Asker{
		fs:     fs,
		cfg:    cfg,
		logger: logging.NewComponentLogger(slog.Default(), "localask"),
	}
}

func (a *Asker) Name() string { return "local_ask" }

// Load reads every .txt document in the directory. Ask calls it on first use.
func (a *Asker) Load() error {
	a.once.Do(func() {
		a.loadErr = a.load()
	})
	return a.loadErr
}

func (a *Asker) load() error {
	entries, err := afero.ReadDir(a.fs, a.cfg.Dir)
	if err != nil {
		return fmt.Errorf("read docs dir %q: %w", a.cfg.Dir, err)
	}
	a.docs = make(map[string]string)
	a.terms = make(map[string]map[string]int)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		raw, err := afero.ReadFile(a.fs, filepath.Join(a.cfg.Dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read doc %q: %w", e.Name(), err)
		}
		id := strings.TrimSuffix(e.Name(), ".txt")
		doc := strings.TrimSpace(string(raw))
		a.docs[id] = doc
		a.ids = append(a.ids, id)
		a.terms[id] = termCounts(doc)
	}
	sort.Strings(a.ids)
	a.logger.Info("documents_loaded", slog.String("dir", a.cfg.Dir), slog.Int("count", len(a.ids)))
	return nil
}

func (a *Asker) Ask(ctx context.Context, query string) (string, error) {
	if err := a.Load(); err != nil {
		return "", &errorsx.NetworkError{Kind: errorsx.NetworkTransport, Message: "answer documents unavailable", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &errorsx.NetworkError{Kind: errorsx.NetworkTransport, Err: err}
	}
	if intent, ok := Classify(a.cfg.Intents, query); ok {
		if doc, found := a.docs[intent]; found && doc != "" {
			a.logger.Debug("intent_matched", slog.String("intent", intent))
			return doc, nil
		}
	}
	if id := a.bestMatch(query); id != "" {
		a.logger.Debug("lexical_match", slog.String("doc", id))
		return a.docs[id], nil
	}
	return NoAnswer, nil
}

// bestMatch scores documents by query term overlap. Ties go to the first ID
// in sorted order.
func (a *Asker) bestMatch(query string) string {
	q := termCounts(query)
	best, bestScore := "", 0
	for _, id := range a.ids {
		score := 0
		for term := range q {
			score += a.terms[id][term]
		}
		if score > bestScore {
			best, bestScore = id, score
		}
	}
	return best
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "what": {}, "who": {},
	"how": {}, "do": {}, "does": {}, "you": {}, "your": {}, "me": {}, "about": {},
	"tell": {}, "of": {}, "in": {}, "on": {}, "and": {}, "to": {}, "for": {}, "his": {},
	"he": {}, "i": {}, "can": {}, "with": {}, "my": {},
}

func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(tok) < 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		counts[tok]++
	}
	return counts
}

var _ backend.Asker = (*Asker)(nil)
