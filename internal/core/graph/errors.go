package graph

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicatePackage  = errors.New("duplicate package")
	ErrInvalidDependency = errors.New("invalid dependency")
)

// PackageNotFoundError is returned when a name is not registered.
type PackageNotFoundError struct {
	Name string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %q not found", e.Name)
}

// DependencyNotFoundError is returned when a registration references a
// package that has not been registered yet.
type DependencyNotFoundError struct {
	Package    string
	Dependency string
}

func (e *DependencyNotFoundError) Error() string {
	return fmt.Sprintf("dependency %q (for %q) not found", e.Dependency, e.Package)
}
