// Package gitinfo reads last-update metadata for documents from the git
// repository that contains them.
package gitinfo

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Info is the latest commit touching a file.
type Info struct {
	Author string
	Time   time.Time
	Commit string
}

// Repo answers last-update queries. A nil *Repo answers none.
type Repo struct {
	repo *git.Repository
	root string
	head plumbing.Hash
}

var errStop = errors.New("stop")

// Open finds the repository containing dir, walking up to parent
// directories. It returns nil and no error when dir is not inside a
// repository or the repository has no commits yet.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", dir, err)
	}

	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	return &Repo{repo: repo, root: root, head: ref.Hash()}, nil
}

// Head returns the HEAD commit hash, empty for a nil Repo.
func (r *Repo) Head() string {
	if r == nil {
		return ""
	}
	return r.head.String()
}

// LastUpdate returns the most recent commit on HEAD that touched absPath.
// ok is false for files outside the repository or never committed.
func (r *Repo) LastUpdate(absPath string) (info Info, ok bool, err error) {
	if r == nil {
		return Info{}, false, nil
	}
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return Info{}, false, err
	}
	rel, err := filepath.Rel(r.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Info{}, false, nil
	}
	rel = filepath.ToSlash(rel)

	iter, err := r.repo.Log(&git.LogOptions{From: r.head, FileName: &rel})
	if err != nil {
		return Info{}, false, fmt.Errorf("git log %s: %w", rel, err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		info = Info{Author: c.Author.Name, Time: c.Author.When.UTC(), Commit: c.Hash.String()}
		ok = true
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return Info{}, false, fmt.Errorf("git log %s: %w", rel, err)
	}
	return info, ok, nil
}

// EditURL returns the edit link of a document: custom wins, otherwise
// editURL (ending in "/") followed by the docs directory and the source
// path. It is empty when neither is configured.
func EditURL(editURL, docsPath, source, custom string) string {
	if custom != "" {
		return custom
	}
	if editURL == "" {
		return ""
	}
	return editURL + path.Join(filepath.ToSlash(filepath.Clean(docsPath)), source)
}
