package observers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const osAppendFlags = os.O_CREATE | os.O_APPEND | os.O_WRONLY

// TimelinePath returns the timeline file for a session.
func TimelinePath(dir, sessionID string) string {
	return filepath.Join(dir, sanitizeID(sessionID)+".jsonl")
}

// PurgeTimelines removes timeline files in dir older than maxAge and returns
// how many were deleted. Other files are left alone.
func PurgeTimelines(fs afero.Fs, dir string, maxAge time.Duration, now time.Time) (int, error) {
	if dir == "" || maxAge <= 0 {
		return 0, nil
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	var removed int
	var errs error
	cutoff := now.Add(-maxAge)
	for _, info := range entries {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".jsonl") {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := fs.Remove(filepath.Join(dir, info.Name())); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		removed++
	}
	return removed, errs
}
