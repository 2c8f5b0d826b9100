package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/minibrew-go/internal/core/build"
	"github.com/nightconcept/minibrew-go/internal/core/graph"
	"github.com/nightconcept/minibrew-go/internal/core/project"
	"github.com/nightconcept/minibrew-go/internal/core/source"
)

func TestLoadPackagesToml_Valid(t *testing.T) {
	tempDir := t.TempDir()
	validTomlContent := `
[[package]]
name = "zlib"
from = "https://zlib.net/zlib-1.3.tar.gz"

[[package]]
name = "png"
deps = ["zlib"]
[package.source]
git = "https://github.com/glennrp/libpng.git"
commit = "v1.6.39"
[package.build]
type = "configure_make"
flags = ["--disable-silent-rules"]
`
	err := os.WriteFile(filepath.Join(tempDir, PackagesTomlName), []byte(validTomlContent), 0644)
	require.NoError(t, err)

	proj, err := LoadPackagesToml(tempDir)
	require.NoError(t, err)
	require.Len(t, proj.Package, 2)

	assert.Equal(t, "zlib", proj.Package[0].Name)
	assert.Equal(t, "https://zlib.net/zlib-1.3.tar.gz", proj.Package[0].From)
	assert.Nil(t, proj.Package[0].Build)
	assert.Equal(t, "png", proj.Package[1].Name)
	assert.Equal(t, []string{"zlib"}, proj.Package[1].Deps)
	require.NotNil(t, proj.Package[1].Source)
	assert.Equal(t, "v1.6.39", proj.Package[1].Source.Commit)
	require.NotNil(t, proj.Package[1].Build)
	assert.Equal(t, []string{"--disable-silent-rules"}, proj.Package[1].Build.Flags)
}

func TestLoadPackagesToml_MissingFileUsesDefaults(t *testing.T) {
	proj, err := LoadPackagesToml(t.TempDir())
	require.NoError(t, err)

	var names []string
	for _, p := range proj.Package {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"sdl", "freetype", "libpng", "sdl_ttf", "ffmpeg", "graphviz"}, names)
}

func TestLoadPackagesToml_InvalidToml(t *testing.T) {
	tempDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tempDir, PackagesTomlName), []byte(`[[package]]
name = "sdl`), 0644)
	require.NoError(t, err)

	_, err = LoadPackagesToml(tempDir)
	assert.Error(t, err)
}

func TestLoadPackagesToml_UnknownKey(t *testing.T) {
	tempDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tempDir, PackagesTomlName), []byte(`[[package]]
name = "sdl"
from = "github:libsdl-org/SDL@release-2.26.1"
dependencies = ["x"]
`), 0644)
	require.NoError(t, err)

	_, err = LoadPackagesToml(tempDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependencies")
}

func TestWritePackagesToml_RoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	proj := &project.Project{Package: []project.PackageDecl{
		{Name: "sdl", Source: &project.SourceDecl{Git: "https://github.com/libsdl-org/SDL.git", Commit: "release-2.26.1"}},
		{
			Name: "ffmpeg",
			From: "git+https://github.com/FFmpeg/FFmpeg.git@n5.1.2",
			Deps: []string{"sdl"},
			Build: &project.BuildDecl{
				Type:  project.StepSequence,
				Steps: []project.BuildDecl{{Type: project.StepConfigureMake, Flags: []string{"--enable-sdl"}}},
			},
		},
	}}

	require.NoError(t, WritePackagesToml(tempDir, proj))
	loaded, err := LoadPackagesToml(tempDir)
	require.NoError(t, err)
	assert.Equal(t, proj, loaded)
}

func TestBuildGraph_DefaultCatalogue(t *testing.T) {
	proj, err := DefaultPackages()
	require.NoError(t, err)

	g, err := BuildGraph(proj, "/tmp/repos")
	require.NoError(t, err)
	assert.Equal(t, []string{"sdl", "freetype", "libpng", "sdl_ttf", "ffmpeg", "graphviz"}, g.Names())

	sdl, err := g.Lookup("sdl")
	require.NoError(t, err)
	assert.Equal(t,
		"Git('https://github.com/libsdl-org/SDL.git',release-2.26.1),"+
			"SwitchOnPlatform(unix=ConfigureAndMake(--disable-system-iconv),windows=CombinedStep(CopyInclude(include),MSBuild(VisualC)))",
		sdl.Fingerprint())
	assert.Equal(t, filepath.Join("/tmp/repos", "sdl"), sdl.WorkDir())

	ffmpeg, err := g.Lookup("ffmpeg")
	require.NoError(t, err)
	require.Len(t, ffmpeg.Deps, 1)
	assert.Same(t, sdl, ffmpeg.Deps[0])

	ttf, err := g.Lookup("sdl_ttf")
	require.NoError(t, err)
	assert.Len(t, ttf.Deps, 3)
	assert.IsType(t, source.Tarball{}, ttf.Source)

	graphviz, err := g.Lookup("graphviz")
	require.NoError(t, err)
	assert.Equal(t, build.ConfigureAndMake{}, graphviz.Step)
	assert.Equal(t, "3584b950911388bba0c315a34166011324dbd7da1e954b245dd9cf7f521f528f", graphviz.Source.(source.Tarball).SHA256)
}

func TestBuildGraph_Errors(t *testing.T) {
	tests := []struct {
		name  string
		decls []project.PackageDecl
		check func(t *testing.T, err error)
	}{
		{
			name:  "forward dependency",
			decls: []project.PackageDecl{{Name: "ffmpeg", From: "github:FFmpeg/FFmpeg@n5.1.2", Deps: []string{"sdl"}}},
			check: func(t *testing.T, err error) {
				var depErr *graph.DependencyNotFoundError
				assert.True(t, errors.As(err, &depErr))
			},
		},
		{
			name: "duplicate name",
			decls: []project.PackageDecl{
				{Name: "sdl", From: "github:libsdl-org/SDL@release-2.26.1"},
				{Name: "sdl", From: "github:libsdl-org/SDL@release-2.26.2"},
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, graph.ErrDuplicatePackage) },
		},
		{
			name:  "bad build step",
			decls: []project.PackageDecl{{Name: "sdl", From: "github:libsdl-org/SDL@release-2.26.1", Build: &project.BuildDecl{Type: "cmake"}}},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, project.ErrInvalidDeclaration)
				assert.Contains(t, err.Error(), `package "sdl"`)
			},
		},
		{
			name:  "bad source",
			decls: []project.PackageDecl{{Name: "sdl", From: "ftp://example.com/sdl.zip"}},
			check: func(t *testing.T, err error) { assert.Contains(t, err.Error(), "unsupported source") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildGraph(&project.Project{Package: tt.decls}, t.TempDir())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestResolveHome(t *testing.T) {
	flagDir := t.TempDir()
	envDir := t.TempDir()

	t.Setenv(HomeEnv, envDir)
	home, err := ResolveHome(flagDir)
	require.NoError(t, err)
	assert.Equal(t, flagDir, home)

	home, err = ResolveHome("")
	require.NoError(t, err)
	assert.Equal(t, envDir, home)

	t.Setenv(HomeEnv, "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	home, err = ResolveHome("")
	require.NoError(t, err)
	assert.Equal(t, wd, home)
}

func TestNewPaths(t *testing.T) {
	p := NewPaths("/opt/mb")
	assert.Equal(t, "/opt/mb", p.Home)
	assert.Equal(t, filepath.Join("/opt/mb", "repos"), p.Repos)
	assert.Equal(t, filepath.Join("/opt/mb", "pkgs"), p.Prefix)
	assert.Equal(t, filepath.Join("/opt/mb", "pkgs", "install.toml"), p.Ledger)
}

func TestLoad(t *testing.T) {
	home := t.TempDir()
	paths, g, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, home, paths.Home)
	assert.Equal(t, 6, g.Len())
}
