package observers

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/metrics"
	"github.com/spf13/afero"
)

// TimelineObserver appends one JSON line per event to <session_id>.jsonl.
// Only the event name, value and tags are written. Fields can carry
// conversation text and never reach disk.
type TimelineObserver struct {
	fs    afero.Fs
	dir   string
	mu    sync.Mutex
	files map[string]afero.File
}

// NewTimelineObserver writes under dir on fs. A nil fs means the OS filesystem.
func NewTimelineObserver(fs afero.Fs, dir string) *TimelineObserver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &TimelineObserver{fs: fs, dir: dir, files: make(map[string]afero.File)}
}

type timelineEvent struct {
	Time      time.Time         `json:"time"`
	Event     string            `json:"event"`
	Value     float64           `json:"value,omitempty"`
	SessionID string            `json:"session_id"`
	Tags      map[string]string `json:"tags,omitempty"`
}

func (o *TimelineObserver) RecordEvent(ev metrics.Event) {
	id := ev.Tags["session_id"]
	if id == "" || strings.TrimSpace(o.dir) == "" {
		return
	}
	tags := make(map[string]string, len(ev.Tags))
	for k, v := range ev.Tags {
		if k == "session_id" {
			continue
		}
		tags[k] = v
	}
	line, err := json.Marshal(timelineEvent{
		Time:      ev.Time.UTC(),
		Event:     ev.Name,
		Value:     ev.Value,
		SessionID: id,
		Tags:      tags,
	})
	if err != nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	f := o.fileForLocked(id)
	if f == nil {
		return
	}
	_, _ = f.Write(append(line, '\n'))
}

// Flush syncs open files.
func (o *TimelineObserver) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var err error
	for _, f := range o.files {
		err = errors.Join(err, f.Sync())
	}
	return err
}

// Close closes any open files.
func (o *TimelineObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var err error
	for _, f := range o.files {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	o.files = make(map[string]afero.File)
	return err
}

func (o *TimelineObserver) fileForLocked(id string) afero.File {
	safe := sanitizeID(id)
	if safe == "" {
		return nil
	}
	if f := o.files[safe]; f != nil {
		return f
	}
	if err := o.fs.MkdirAll(o.dir, 0o755); err != nil {
		return nil
	}
	f, err := o.fs.OpenFile(TimelinePath(o.dir, safe), osAppendFlags, 0o644)
	if err != nil {
		return nil
	}
	o.files[safe] = f
	return f
}

func sanitizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}

var (
	_ metrics.Observer = (*TimelineObserver)(nil)
	_ metrics.Flusher  = (*TimelineObserver)(nil)
)
