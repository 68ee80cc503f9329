// Package repocache maintains local shallow clones of surveyed
// repositories and an on-disk index of each repository's last-seen commit,
// so a repeated survey run skips the git fetch for repositories whose HEAD
// hasn't moved (their existing checkout is still surveyed).
// Grounded on the teacher's internal/ingestion/clone.go (shallow clone,
// GIT_TERMINAL_PROMPT=0, hash-named cache directory), re-targeted to index
// "owner/name -> last SHA" in a bbolt bucket instead of a database row.
package repocache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const indexBucket = "repos"

// Entry is the bookkeeping record kept for one cached repository.
type Entry struct {
	FullName     string    `json:"full_name"`
	LastSHA      string    `json:"last_sha"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// Cache clones repositories under <root>/repos/<sanitized-full-name> and
// tracks their last-synced commit in <root>/.index.bbolt.
type Cache struct {
	root string
	db   *bbolt.DB
}

// Open creates root if missing and opens (or initializes) the index.
func Open(root string) (*Cache, error) {
	if root == "" {
		return nil, fmt.Errorf("repocache: root path is empty")
	}
	if err := os.MkdirAll(filepath.Join(root, "repos"), 0o755); err != nil {
		return nil, fmt.Errorf("repocache: create cache root: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(root, ".index.bbolt"), 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("repocache: open index: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(indexBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("repocache: init index bucket: %w", err)
	}

	return &Cache{root: root, db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// RepoPath returns the local clone path for a repository, whether or not
// it has been cloned yet.
func (c *Cache) RepoPath(fullName string) string {
	return filepath.Join(c.root, "repos", sanitize(fullName))
}

// Sync clones cloneURL under RepoPath(fullName) if absent, or fast-forwards
// it in place if present, but skips the git round-trip entirely when the
// cached SHA already matches the remote's HEAD. changed reports whether the
// local checkout was (re)written.
func (c *Cache) Sync(ctx context.Context, fullName, cloneURL string) (path string, changed bool, err error) {
	path = c.RepoPath(fullName)

	remoteSHA, err := remoteHeadSHA(ctx, cloneURL)
	if err != nil {
		return "", false, fmt.Errorf("repocache: resolve remote HEAD for %s: %w", fullName, err)
	}

	cached, ok, err := c.get(fullName)
	if err != nil {
		return "", false, err
	}
	exists := dirExists(path)

	if ok && exists && cached.LastSHA == remoteSHA {
		return path, false, nil
	}

	if !exists {
		if err := cloneShallow(ctx, cloneURL, path); err != nil {
			return "", false, err
		}
	} else {
		if err := pullLatest(ctx, path); err != nil {
			return "", false, err
		}
	}

	if err := c.put(Entry{FullName: fullName, LastSHA: remoteSHA, LastSyncedAt: time.Now()}); err != nil {
		return "", false, err
	}

	return path, true, nil
}

// Lookup returns the last-recorded sync entry for a repository, if any.
func (c *Cache) Lookup(fullName string) (Entry, bool, error) {
	return c.get(fullName)
}

// Evict removes a repository's local clone and index entry, used when a
// repository falls out of the configured allowlist between survey runs.
func (c *Cache) Evict(fullName string) error {
	if err := os.RemoveAll(c.RepoPath(fullName)); err != nil {
		return fmt.Errorf("repocache: evict %s: %w", fullName, err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(indexBucket)).Delete([]byte(fullName))
	})
}

func (c *Cache) get(fullName string) (Entry, bool, error) {
	var entry Entry
	found := false
	err := c.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(indexBucket)).Get([]byte(fullName))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &entry)
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("repocache: read index entry for %s: %w", fullName, err)
	}
	return entry, found, nil
}

func (c *Cache) put(entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("repocache: encode index entry: %w", err)
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(indexBucket)).Put([]byte(entry.FullName), raw)
	})
	if err != nil {
		return fmt.Errorf("repocache: write index entry for %s: %w", entry.FullName, err)
	}
	return nil
}

func cloneShallow(ctx context.Context, url, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("repocache: create clone parent dir: %w", err)
	}
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--single-branch", url, path)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("repocache: git clone failed: %w, output: %s", err, string(out))
	}
	return nil
}

func pullLatest(ctx context.Context, path string) error {
	fetch := exec.CommandContext(ctx, "git", "-C", path, "fetch", "--depth", "1", "origin")
	fetch.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if out, err := fetch.CombinedOutput(); err != nil {
		return fmt.Errorf("repocache: git fetch failed: %w, output: %s", err, string(out))
	}

	reset := exec.CommandContext(ctx, "git", "-C", path, "reset", "--hard", "FETCH_HEAD")
	if out, err := reset.CombinedOutput(); err != nil {
		return fmt.Errorf("repocache: git reset failed: %w, output: %s", err, string(out))
	}
	return nil
}

func remoteHeadSHA(ctx context.Context, url string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-remote", url, "HEAD")
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git ls-remote failed: %w", err)
	}
	line := strings.TrimSpace(stdout.String())
	if line == "" {
		return "", fmt.Errorf("git ls-remote returned no output for %s", url)
	}
	fields := strings.Fields(strings.SplitN(line, "\n", 2)[0])
	if len(fields) == 0 {
		return "", fmt.Errorf("unexpected git ls-remote output: %q", line)
	}
	return fields[0], nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func sanitize(fullName string) string {
	return strings.ReplaceAll(fullName, "/", "__")
}
