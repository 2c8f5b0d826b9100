// Package source_test contains tests for the source package.
package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/minibrew-go/internal/core/source"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        source.Source
		errContains string
	}{
		{
			name:  "github shorthand",
			input: "github:libsdl-org/SDL@release-2.26.1",
			want:  source.Git{Repository: "https://github.com/libsdl-org/SDL.git", Commit: "release-2.26.1"},
		},
		{
			name:  "git plus url",
			input: "git+https://example.com/ffmpeg@n5.1.2",
			want:  source.Git{Repository: "https://example.com/ffmpeg", Commit: "n5.1.2"},
		},
		{
			name:  "dot git url with ref",
			input: "https://github.com/FFmpeg/FFmpeg.git@n5.1.2",
			want:  source.Git{Repository: "https://github.com/FFmpeg/FFmpeg.git", Commit: "n5.1.2"},
		},
		{
			name:  "tar.xz archive",
			input: "https://download.savannah.gnu.org/releases/freetype/freetype-2.12.1.tar.xz",
			want:  source.Tarball{URL: "https://download.savannah.gnu.org/releases/freetype/freetype-2.12.1.tar.xz"},
		},
		{
			name:  "tar.gz archive with query",
			input: "https://example.com/pkg-1.0.tar.gz?download=1",
			want:  source.Tarball{URL: "https://example.com/pkg-1.0.tar.gz?download=1"},
		},
		{
			name:        "github shorthand missing ref",
			input:       "github:owner/repo",
			errContains: "missing @ref",
		},
		{
			name:        "github shorthand empty ref",
			input:       "github:owner/repo@",
			errContains: "ref part is empty",
		},
		{
			name:        "github shorthand with path",
			input:       "github:owner/repo/extra@main",
			errContains: "expected github:owner/repo@ref",
		},
		{
			name:        "unknown archive",
			input:       "https://example.com/pkg.zip",
			errContains: "unsupported archive format",
		},
		{
			name:        "unknown scheme",
			input:       "ftp://example.com/pkg.tar.gz",
			errContains: "unsupported source",
		},
		{
			name:        "empty",
			input:       "  ",
			errContains: "empty source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := source.Parse(tt.input)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_GitHubBaseURLOverride(t *testing.T) {
	original := source.GitHubBaseURL
	source.GitHubBaseURL = "http://127.0.0.1:9999/"
	defer func() { source.GitHubBaseURL = original }()

	got, err := source.Parse("github:owner/repo@main")
	require.NoError(t, err)
	assert.Equal(t, source.Git{Repository: "http://127.0.0.1:9999/owner/repo.git", Commit: "main"}, got)
}

func TestKeys(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Git('https://example.com/r.git',v1)", source.Git{Repository: "https://example.com/r.git", Commit: "v1"}.Key())
	assert.Equal(t, "TarBall(https://example.com/a.tar.gz,)", source.Tarball{URL: "https://example.com/a.tar.gz"}.Key())
	assert.Equal(t, "TarBall(https://example.com/a.tar.gz,abc)", source.Tarball{URL: "https://example.com/a.tar.gz", SHA256: "abc"}.Key())
}
