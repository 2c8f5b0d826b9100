package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigureAndMake runs ./configure --prefix=<prefix> <Flags...>, make, make install.
type ConfigureAndMake struct {
	Flags []string
}

func (s ConfigureAndMake) Key() string {
	return fmt.Sprintf("ConfigureAndMake(%s)", strings.Join(s.Flags, ","))
}

func (s ConfigureAndMake) Build(env Env, srcDir string) error {
	configure := append([]string{filepath.Join(srcDir, "configure"), "--prefix=" + env.Prefix}, s.Flags...)
	toolEnv := []string{
		"CPPFLAGS=-I" + filepath.Join(env.Prefix, "include"),
		"LDFLAGS=-L" + filepath.Join(env.Prefix, "lib"),
		"PATH=" + os.Getenv("PATH") + string(os.PathListSeparator) + filepath.Join(env.Prefix, "bin"),
	}

	for _, args := range [][]string{configure, {"make"}, {"make", "install"}} {
		cmd := Command{Args: args, Dir: srcDir, Env: toolEnv}
		if err := env.runner().Run(cmd); err != nil {
			return &BuildError{Step: s.Key(), Command: args, Err: err}
		}
	}
	return nil
}

// CopyInclude copies the headers under <src>/<Dir> into <prefix>/include.
type CopyInclude struct {
	Dir string
}

func (s CopyInclude) Key() string {
	return fmt.Sprintf("CopyInclude(%s)", s.Dir)
}

func (s CopyInclude) Build(env Env, srcDir string) error {
	from := filepath.Join(srcDir, s.Dir)
	to := filepath.Join(env.Prefix, "include")
	if err := copyTree(from, to); err != nil {
		return &BuildError{Step: s.Key(), Err: err}
	}
	return nil
}

// MSBuild runs msbuild in <src>/<Dir>.
type MSBuild struct {
	Dir string
}

func (s MSBuild) Key() string {
	return fmt.Sprintf("MSBuild(%s)", s.Dir)
}

func (s MSBuild) Build(env Env, srcDir string) error {
	args := []string{"msbuild", "/p:Configuration=Release", "/p:OutDir=" + filepath.Join(env.Prefix, "lib") + string(filepath.Separator)}
	cmd := Command{Args: args, Dir: filepath.Join(srcDir, s.Dir)}
	if err := env.runner().Run(cmd); err != nil {
		return &BuildError{Step: s.Key(), Command: args, Err: err}
	}
	return nil
}

// Sequence runs Steps in order, stopping at the first failure.
type Sequence struct {
	Steps []Step
}

func (s Sequence) Key() string {
	return fmt.Sprintf("CombinedStep(%s)", joinKeys(s.Steps))
}

func (s Sequence) Build(env Env, srcDir string) error {
	for _, step := range s.Steps {
		if err := step.Build(env, srcDir); err != nil {
			return err
		}
	}
	return nil
}

// SwitchOnPlatform picks Windows on windows hosts and Unix everywhere else.
type SwitchOnPlatform struct {
	Unix    Step
	Windows Step
}

func (s SwitchOnPlatform) Key() string {
	return fmt.Sprintf("SwitchOnPlatform(unix=%s,windows=%s)", keyOrNone(s.Unix), keyOrNone(s.Windows))
}

func (s SwitchOnPlatform) Build(env Env, srcDir string) error {
	step := s.Unix
	if env.goos() == "windows" {
		step = s.Windows
	}
	if step == nil {
		return &BuildError{Step: s.Key(), Err: fmt.Errorf("%w %s", ErrNoStep, env.goos())}
	}
	return step.Build(env, srcDir)
}

func keyOrNone(s Step) string {
	if s == nil {
		return "None"
	}
	return s.Key()
}

func copyTree(from, to string) error {
	info, err := os.Stat(from)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", from)
	}

	return filepath.WalkDir(from, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		target := filepath.Join(to, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
