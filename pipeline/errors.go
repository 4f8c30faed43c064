package pipeline

import "errors"

var (
	// ErrModNotFound is returned when a requested slug matches no catalog mod.
	ErrModNotFound = errors.New("mod not found")

	// ErrNoQualifyingFile is returned when no file of a mod fits the requested
	// modloader and game versions.
	ErrNoQualifyingFile = errors.New("no qualifying file")

	// ErrDependencyUnresolved marks a required dependency id absent from the
	// catalog. It is logged, never fatal.
	ErrDependencyUnresolved = errors.New("dependency unresolved")
)
