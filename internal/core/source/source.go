// Package source describes where a package's code comes from and how to
// retrieve it into a working directory.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrDigestMismatch     = errors.New("sha256 digest does not match")
	ErrArchiveLayout      = errors.New("unexpected archive layout")
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	ErrUnknownRevision    = errors.New("revision not found")
)

// GitHubBaseURL is the prefix used when expanding github: shorthands. Overridable for tests.
var GitHubBaseURL = "https://github.com"

// Source is a closed set of descriptors: Git and Tarball.
type Source interface {
	// Key is a stable identity string used for fingerprinting.
	Key() string
	// Fetch produces a clean checkout at dest. On failure dest is left absent.
	Fetch(dest string) error
}

// FetchError reports a failed retrieval or verification of a source.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Parse converts a one-line source string into a descriptor.
//
//	github:owner/repo@ref            -> Git on GitHubBaseURL
//	git+<url>@ref, <url>.git@ref     -> Git
//	<url ending in a known archive>  -> Tarball
func Parse(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty source")
	}

	if strings.HasPrefix(raw, "github:") {
		content := strings.TrimPrefix(raw, "github:")
		repoPart, ref, err := splitRef(raw, content)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(repoPart, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid github shorthand source '%s': expected github:owner/repo@ref", raw)
		}
		return Git{
			Repository: fmt.Sprintf("%s/%s/%s.git", strings.TrimSuffix(GitHubBaseURL, "/"), parts[0], parts[1]),
			Commit:     ref,
		}, nil
	}

	if strings.HasPrefix(raw, "git+") {
		repo, ref, err := splitRef(raw, strings.TrimPrefix(raw, "git+"))
		if err != nil {
			return nil, err
		}
		return Git{Repository: repo, Commit: ref}, nil
	}

	if at := strings.LastIndex(raw, "@"); at != -1 && strings.HasSuffix(raw[:at], ".git") {
		repo, ref, err := splitRef(raw, raw)
		if err != nil {
			return nil, err
		}
		return Git{Repository: repo, Commit: ref}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source URL '%s': %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported source '%s': expected github:, git+ or an http(s) archive URL", raw)
	}
	if _, err := archiveFormatOf(raw); err != nil {
		return nil, fmt.Errorf("unsupported source '%s': %w", raw, err)
	}
	return Tarball{URL: raw}, nil
}

func splitRef(raw, content string) (string, string, error) {
	lastAt := strings.LastIndex(content, "@")
	if lastAt == -1 {
		return "", "", fmt.Errorf("invalid git source '%s': missing @ref (e.g., @v1.2.3 or @commitsha)", raw)
	}
	if lastAt == len(content)-1 {
		return "", "", fmt.Errorf("invalid git source '%s': ref part is empty after @", raw)
	}
	if lastAt == 0 {
		return "", "", fmt.Errorf("invalid git source '%s': repository is empty", raw)
	}
	return content[:lastAt], content[lastAt+1:], nil
}

// stage runs fill inside a scratch directory next to dest and moves the path
// fill returns into dest. dest never holds a partial result.
func stage(dest string, fill func(scratch string) (string, error)) error {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", parent, err)
	}
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to remove existing %s: %w", dest, err)
	}

	scratch, err := os.MkdirTemp(parent, filepath.Base(dest)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	result, err := fill(scratch)
	if err != nil {
		return err
	}
	if err := os.Rename(result, dest); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", result, err)
	}
	return nil
}
