package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nightconcept/minibrew-go/internal/core/downloader"
	"github.com/nightconcept/minibrew-go/internal/core/hasher"
	"github.com/nightconcept/minibrew-go/internal/core/logfields"
)

// Tarball is a downloadable archive with an optional expected sha256 digest.
type Tarball struct {
	URL    string
	SHA256 string
}

func (t Tarball) Key() string {
	return fmt.Sprintf("TarBall(%s,%s)", t.URL, t.SHA256)
}

// Fetch downloads, verifies and extracts the archive. The archive must hold
// exactly one top-level entry, which becomes dest.
func (t Tarball) Fetch(dest string) error {
	format, err := archiveFormatOf(t.URL)
	if err != nil {
		return &FetchError{Source: t.Key(), Err: err}
	}

	err = stage(dest, func(scratch string) (string, error) {
		archivePath := filepath.Join(scratch, "archive"+format.ext)
		slog.Debug("Downloading archive", logfields.URL(t.URL), logfields.Path(archivePath))
		n, err := downloader.DownloadTo(t.URL, archivePath)
		if err != nil {
			return "", err
		}
		slog.Debug("Archive downloaded", logfields.URL(t.URL), slog.Int64("bytes", n))

		if t.SHA256 != "" {
			if err := verifyDigest(archivePath, t.SHA256); err != nil {
				return "", err
			}
		}

		outDir := filepath.Join(scratch, "out")
		if err := extract(archivePath, outDir, format); err != nil {
			return "", err
		}

		entries, err := os.ReadDir(outDir)
		if err != nil {
			return "", fmt.Errorf("failed to read extracted archive: %w", err)
		}
		if len(entries) != 1 {
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			return "", fmt.Errorf("%w: expected exactly one top level entry but got: %s", ErrArchiveLayout, strings.Join(names, ","))
		}
		return filepath.Join(outDir, entries[0].Name()), nil
	})
	if err != nil {
		return &FetchError{Source: t.Key(), Err: err}
	}
	return nil
}

func verifyDigest(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	digest, err := hasher.SHA256Hex(f)
	if err != nil {
		return err
	}
	if !hasher.MatchesDigest(expected, digest) {
		return fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, expected, digest)
	}
	return nil
}
