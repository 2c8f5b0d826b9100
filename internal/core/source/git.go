package source

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/nightconcept/minibrew-go/internal/core/logfields"
)

// Git is a version-control reference: a repository URL and a commit, tag or branch.
type Git struct {
	Repository string
	Commit     string
}

func (g Git) Key() string {
	return fmt.Sprintf("Git('%s',%s)", g.Repository, g.Commit)
}

// Fetch clones the repository and checks out Commit.
func (g Git) Fetch(dest string) error {
	err := stage(dest, func(scratch string) (string, error) {
		checkout := filepath.Join(scratch, "checkout")

		slog.Debug("Cloning repository", logfields.URL(g.Repository), slog.String("commit", g.Commit), logfields.Path(dest))
		repo, err := git.PlainClone(checkout, false, &git.CloneOptions{
			URL:  g.Repository,
			Tags: git.AllTags,
		})
		if err != nil {
			return "", fmt.Errorf("failed to clone repository %s: %w", g.Repository, err)
		}

		hash, err := resolve(repo, g.Commit)
		if err != nil {
			return "", err
		}

		wt, err := repo.Worktree()
		if err != nil {
			return "", fmt.Errorf("failed to get worktree: %w", err)
		}
		if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
			return "", fmt.Errorf("failed to checkout %s: %w", g.Commit, err)
		}

		slog.Info("Repository checked out", logfields.URL(g.Repository), slog.String("commit", hash.String()[:8]))
		return checkout, nil
	})
	if err != nil {
		return &FetchError{Source: g.Key(), Err: err}
	}
	return nil
}

// resolve accepts tags, local and remote branches, and full or abbreviated hashes.
func resolve(repo *git.Repository, rev string) (*plumbing.Hash, error) {
	for _, candidate := range []string{rev, "origin/" + rev} {
		if hash, err := repo.ResolveRevision(plumbing.Revision(candidate)); err == nil {
			return hash, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRevision, rev)
}
