package config

import "errors"

// Error sentinels for settings file handling
var (
	// ErrConfigVersion means the file's version field is missing or
	// not supported by this build.
	ErrConfigVersion = errors.New("unsupported settings file version")

	// ErrUnknownName means an enumerated field holds a name this
	// build does not know.
	ErrUnknownName = errors.New("unknown name")

	// ErrBadValue means a numeric field is out of its legal range.
	ErrBadValue = errors.New("value out of range")

	// ErrBadExtension means the file path ends in neither a JSON nor
	// a YAML extension.
	ErrBadExtension = errors.New("unsupported file extension (want .json, .yaml or .yml)")
)
