package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/minibrew-go/internal/core/source"
)

func commitFile(t *testing.T, repo *git.Repository, repoPath, filename, content string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, filename), []byte(content), 0o600))
	_, err = wt.Add(filename)
	require.NoError(t, err)
	hash, err := wt.Commit("update "+filename, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash
}

// newRemote creates a bare repository with two commits on master and a tag
// v1.0 on the first one. It returns the bare path and both commit hashes.
func newRemote(t *testing.T) (string, plumbing.Hash, plumbing.Hash) {
	t.Helper()
	tmp := t.TempDir()
	barePath := filepath.Join(tmp, "remote.git")
	_, err := git.PlainInit(barePath, true)
	require.NoError(t, err)

	workPath := filepath.Join(tmp, "seed")
	work, err := git.PlainInit(workPath, false)
	require.NoError(t, err)
	_, err = work.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{barePath}})
	require.NoError(t, err)

	first := commitFile(t, work, workPath, "version.txt", "1.0")
	second := commitFile(t, work, workPath, "version.txt", "2.0")
	require.NoError(t, work.Push(&git.PushOptions{RemoteName: "origin"}))

	bare, err := git.PlainOpen(barePath)
	require.NoError(t, err)
	_, err = bare.CreateTag("v1.0", first, nil)
	require.NoError(t, err)

	return barePath, first, second
}

func TestGitFetch_Tag(t *testing.T) {
	t.Parallel()
	remote, _, _ := newRemote(t)
	dest := filepath.Join(t.TempDir(), "repos", "pkg")

	require.NoError(t, source.Git{Repository: remote, Commit: "v1.0"}.Fetch(dest))

	content, err := os.ReadFile(filepath.Join(dest, "version.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1.0", string(content))
}

func TestGitFetch_CommitHash(t *testing.T) {
	t.Parallel()
	remote, first, _ := newRemote(t)
	dest := filepath.Join(t.TempDir(), "pkg")

	require.NoError(t, source.Git{Repository: remote, Commit: first.String()}.Fetch(dest))

	content, err := os.ReadFile(filepath.Join(dest, "version.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1.0", string(content))
}

func TestGitFetch_Branch(t *testing.T) {
	t.Parallel()
	remote, _, _ := newRemote(t)
	dest := filepath.Join(t.TempDir(), "pkg")

	require.NoError(t, source.Git{Repository: remote, Commit: "master"}.Fetch(dest))

	content, err := os.ReadFile(filepath.Join(dest, "version.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2.0", string(content))
}

func TestGitFetch_ReplacesExistingCheckout(t *testing.T) {
	t.Parallel()
	remote, _, _ := newRemote(t)
	dest := filepath.Join(t.TempDir(), "pkg")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "leftover"), []byte("x"), 0o644))

	require.NoError(t, source.Git{Repository: remote, Commit: "v1.0"}.Fetch(dest))
	assert.NoFileExists(t, filepath.Join(dest, "leftover"))
}

func TestGitFetch_UnknownRevision(t *testing.T) {
	t.Parallel()
	remote, _, _ := newRemote(t)
	dest := filepath.Join(t.TempDir(), "pkg")

	err := source.Git{Repository: remote, Commit: "does-not-exist"}.Fetch(dest)
	require.Error(t, err)

	var fetchErr *source.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.True(t, errors.Is(err, source.ErrUnknownRevision))
	assert.NoDirExists(t, dest)
}

func TestGitFetch_MissingRepository(t *testing.T) {
	t.Parallel()
	dest := filepath.Join(t.TempDir(), "pkg")

	err := source.Git{Repository: filepath.Join(t.TempDir(), "nope.git"), Commit: "v1"}.Fetch(dest)
	require.Error(t, err)
	var fetchErr *source.FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.NoDirExists(t, dest)
}
