// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the configuration shared by the helm2smiles CLI.
package types

// Backend identifies the renderer that turns parsed HELM into SMILES.
type Backend string

const (
	// BackendNative assembles monomer fragments in process.
	BackendNative Backend = "native"
	// BackendContainer delegates to a toolkit image under docker or podman.
	BackendContainer Backend = "container"
)

// LogConfig controls the diagnostic stream on stderr.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ContainerConfig holds settings for the container backend.
type ContainerConfig struct {
	// Runtime is docker, podman, or auto (default auto).
	Runtime string `json:"runtime" yaml:"runtime" mapstructure:"runtime"`

	// Image is the toolkit image that reads HELM on stdin.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Args are passed to the image entrypoint.
	Args []string `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
}

// Config is the decoded helm2smiles configuration.
type Config struct {
	Backend Backend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Monomers is an optional YAML monomer file merged over the built-in
	// library.
	Monomers string `json:"monomers,omitempty" yaml:"monomers,omitempty" mapstructure:"monomers"`

	// MonomerDB is an optional SQLite monomer store merged over the
	// built-in library and Monomers.
	MonomerDB string `json:"monomer_db,omitempty" yaml:"monomer_db,omitempty" mapstructure:"monomer_db"`

	// MaxLineBytes bounds a single input line (default 1 MiB).
	MaxLineBytes int `json:"max_line_bytes" yaml:"max_line_bytes" mapstructure:"max_line_bytes"`

	Container ContainerConfig `json:"container" yaml:"container" mapstructure:"container"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}
