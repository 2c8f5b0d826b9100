package project

import (
	"errors"
	"fmt"

	"github.com/nightconcept/minibrew-go/internal/core/build"
	"github.com/nightconcept/minibrew-go/internal/core/source"
)

// Build step type names accepted in packages.toml.
const (
	StepConfigureMake = "configure_make"
	StepCopyInclude   = "copy_include"
	StepMSBuild       = "msbuild"
	StepSequence      = "sequence"
	StepPlatform      = "platform"
)

var ErrInvalidDeclaration = errors.New("invalid package declaration")

// Project represents the overall structure of the packages.toml file.
type Project struct {
	Package []PackageDecl `toml:"package"`
}

// PackageDecl is a single [[package]] entry.
type PackageDecl struct {
	Name   string      `toml:"name"`
	From   string      `toml:"from,omitempty"` // One-line source, see source.Parse
	Source *SourceDecl `toml:"source,omitempty"`
	Build  *BuildDecl  `toml:"build,omitempty"`
	Deps   []string    `toml:"deps,omitempty"`
}

// SourceDecl holds either a git repository and commit or a tarball url.
type SourceDecl struct {
	Git    string `toml:"git,omitempty"`
	Commit string `toml:"commit,omitempty"`
	URL    string `toml:"url,omitempty"`
	SHA256 string `toml:"sha256,omitempty"`
}

// BuildDecl describes a build step. Sequence and platform steps nest.
type BuildDecl struct {
	Type    string      `toml:"type"`
	Flags   []string    `toml:"flags,omitempty"`
	Dir     string      `toml:"dir,omitempty"`
	Steps   []BuildDecl `toml:"steps,omitempty"`
	Unix    *BuildDecl  `toml:"unix,omitempty"`
	Windows *BuildDecl  `toml:"windows,omitempty"`
}

// NewProject creates and returns an empty Project.
func NewProject() *Project {
	return &Project{Package: []PackageDecl{}}
}

// ResolveSource returns the source descriptor for the declaration.
// Exactly one of From and Source must be set.
func (d PackageDecl) ResolveSource() (source.Source, error) {
	switch {
	case d.From != "" && d.Source != nil:
		return nil, fmt.Errorf("%w: package %q sets both 'from' and [source]", ErrInvalidDeclaration, d.Name)
	case d.From != "":
		return source.Parse(d.From)
	case d.Source != nil:
		return d.Source.Resolve()
	default:
		return nil, fmt.Errorf("%w: package %q has no source", ErrInvalidDeclaration, d.Name)
	}
}

// ResolveStep returns the build step for the declaration, defaulting to a
// flagless configure and make.
func (d PackageDecl) ResolveStep() (build.Step, error) {
	if d.Build == nil {
		return build.ConfigureAndMake{}, nil
	}
	return d.Build.Resolve()
}

func (s SourceDecl) Resolve() (source.Source, error) {
	switch {
	case s.Git != "" && s.URL != "":
		return nil, fmt.Errorf("%w: source sets both git and url", ErrInvalidDeclaration)
	case s.Git != "":
		if s.Commit == "" {
			return nil, fmt.Errorf("%w: git source %s has no commit", ErrInvalidDeclaration, s.Git)
		}
		return source.Git{Repository: s.Git, Commit: s.Commit}, nil
	case s.URL != "":
		return source.Tarball{URL: s.URL, SHA256: s.SHA256}, nil
	default:
		return nil, fmt.Errorf("%w: source needs git or url", ErrInvalidDeclaration)
	}
}

func (b BuildDecl) Resolve() (build.Step, error) {
	switch b.Type {
	case StepConfigureMake:
		return build.ConfigureAndMake{Flags: b.Flags}, nil
	case StepCopyInclude:
		if b.Dir == "" {
			return nil, fmt.Errorf("%w: %s needs dir", ErrInvalidDeclaration, b.Type)
		}
		return build.CopyInclude{Dir: b.Dir}, nil
	case StepMSBuild:
		if b.Dir == "" {
			return nil, fmt.Errorf("%w: %s needs dir", ErrInvalidDeclaration, b.Type)
		}
		return build.MSBuild{Dir: b.Dir}, nil
	case StepSequence:
		if len(b.Steps) == 0 {
			return nil, fmt.Errorf("%w: %s needs steps", ErrInvalidDeclaration, b.Type)
		}
		steps := make([]build.Step, 0, len(b.Steps))
		for _, child := range b.Steps {
			step, err := child.Resolve()
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
		}
		return build.Sequence{Steps: steps}, nil
	case StepPlatform:
		if b.Unix == nil && b.Windows == nil {
			return nil, fmt.Errorf("%w: %s needs unix or windows", ErrInvalidDeclaration, b.Type)
		}
		var sw build.SwitchOnPlatform
		if b.Unix != nil {
			step, err := b.Unix.Resolve()
			if err != nil {
				return nil, err
			}
			sw.Unix = step
		}
		if b.Windows != nil {
			step, err := b.Windows.Resolve()
			if err != nil {
				return nil, err
			}
			sw.Windows = step
		}
		return sw, nil
	case "":
		return nil, fmt.Errorf("%w: build step has no type", ErrInvalidDeclaration)
	default:
		return nil, fmt.Errorf("%w: unknown build step type '%s'", ErrInvalidDeclaration, b.Type)
	}
}
