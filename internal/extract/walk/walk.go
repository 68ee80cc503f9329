// Package walk provides the shared repository-walking logic every language
// extractor's parse_repo entry point uses: a fixed ignore list and a
// per-file dispatch that never aborts a survey on one file's failure.
package walk

import (
	"os"
	"path/filepath"

	"github.com/forgekit-dev/forge/internal/discovery"
	"github.com/forgekit-dev/forge/internal/logging"
)

// IgnoredDirs is skipped entirely during a repo walk.
var IgnoredDirs = map[string]struct{}{
	"node_modules":  {},
	"dist":          {},
	"build":         {},
	".next":         {},
	"coverage":      {},
	"__pycache__":   {},
	".venv":         {},
	"venv":          {},
	"target":        {},
	".git":          {},
	"vendor":        {},
	".terraform":    {},
}

// Extractor parses a single file's content into zero or more discoveries.
// Implementations are pure: no network, no execution, only text in and
// events out.
type Extractor interface {
	// Supports reports whether path's extension is handled by this
	// extractor.
	Supports(path string) bool
	// ParseFile parses one file's content.
	ParseFile(path string, content []byte) ([]discovery.Discovery, error)
	// Source identifies which DiscoverySource tag this extractor's
	// discoveries carry.
	Source() discovery.Source
}

// Repo walks root with every registered extractor, skipping IgnoredDirs.
// A per-file parse failure is logged and the walk continues; it never
// aborts the survey.
func Repo(root string, extractors []Extractor, log *logging.Logger) ([]discovery.Discovery, error) {
	var all []discovery.Discovery

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skip := IgnoredDirs[d.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		for _, ex := range extractors {
			if !ex.Supports(path) {
				continue
			}
			content, readErr := os.ReadFile(path)
			if readErr != nil {
				if log != nil {
					log.Warn("skipping unreadable file", "path", path, "error", readErr)
				}
				continue
			}
			events, parseErr := ex.ParseFile(path, content)
			if parseErr != nil {
				if log != nil {
					log.Warn("parse failed, continuing survey", "path", path, "error", parseErr)
				}
				continue
			}
			for i := range events {
				events[i].Source = ex.Source()
			}
			all = append(all, events...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
