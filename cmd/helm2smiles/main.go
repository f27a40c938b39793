// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the helm2smiles CLI, which converts a
// file of HELM notations, one per line, into a file of canonical SMILES with
// one output line per input line.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/barneyhill/helm2smiles/internal/convert"
	"github.com/barneyhill/helm2smiles/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process exit codes.
const (
	exitOK      = 0
	exitUsage   = 1
	exitIO      = 2
	exitFailure = 99
)

var (
	// logger is built from the configuration before any command runs.
	logger = zap.NewNop()

	// configErr holds a failure to read the config file.
	configErr error
)

// usageError reports a malformed command line.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// exactArgs is cobra.ExactArgs reporting a usageError.
func exactArgs(n int, names string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{msg: fmt.Sprintf("expected %s, got %d argument(s)", names, len(args))}
		}
		return nil
	}
}

// rootCmd converts an input file of HELM into an output file of SMILES.
var rootCmd = &cobra.Command{
	Use:   "helm2smiles <input-file-path> <output-file-path>",
	Short: "Convert HELM notation to canonical SMILES, line by line",
	Long: `helm2smiles reads a text file with one HELM notation per line and writes
a text file with the canonical SMILES of each notation on the same line
number. Lines that cannot be converted produce an empty output line and a
diagnostic on stderr; blank input lines produce blank output lines.

Exit status is 0 when the run completes (even with per-line failures), 1 for
a malformed command line, 2 when a file cannot be opened, read or written,
and 99 for any other fatal error.`,
	Args:          exactArgs(2, "<input-file-path> <output-file-path>"),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l, err := newLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", zap.String("path", f))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runConvert,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./helm2smiles.yaml or ~/.config/helm2smiles/helm2smiles.yaml)")
	pf.String("monomers", "", "YAML monomer file merged over the built-in library")
	pf.String("monomer-db", "", "SQLite monomer database merged over the built-in library")
	pf.String("log-level", "info", "diagnostic level: debug, info, warn, error")
	pf.String("log-format", "console", "diagnostic format: console or json")

	f := rootCmd.Flags()
	f.String("backend", string(types.BackendNative), "renderer: native or container")
	f.String("runtime", "auto", "container runtime for the container backend: auto, docker, podman")
	f.String("image", "", "toolkit image for the container backend")
	f.Int("max-line-bytes", convert.DefaultMaxLineBytes, "longest accepted input line in bytes")

	bind := func(key string, fs *pflag.FlagSet, name string) {
		_ = viper.BindPFlag(key, fs.Lookup(name))
	}
	bind("monomers", pf, "monomers")
	bind("monomer_db", pf, "monomer-db")
	bind("log.level", pf, "log-level")
	bind("log.format", pf, "log-format")
	bind("backend", f, "backend")
	bind("container.runtime", f, "runtime")
	bind("container.image", f, "image")
	bind("max_line_bytes", f, "max-line-bytes")
	viper.SetDefault("container.args", []string{})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("helm2smiles")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "helm2smiles"))
		}
	}

	viper.SetEnvPrefix("HELM2SMILES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	configErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = fmt.Errorf("reading config: %w", err)
		}
	}
}

// loadConfig decodes the merged flags, environment and config file.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	switch cfg.Backend {
	case types.BackendNative, types.BackendContainer:
	case "":
		cfg.Backend = types.BackendNative
	default:
		return cfg, fmt.Errorf("unknown backend %q (want %s or %s)", cfg.Backend, types.BackendNative, types.BackendContainer)
	}
	return cfg, nil
}

// exitCode maps the error returned by a command to the process exit status.
func exitCode(err error) int {
	var ue *usageError
	var ioErr *convert.IOError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue):
		return exitUsage
	case errors.As(err, &ioErr):
		return exitIO
	default:
		return exitFailure
	}
}

// execute runs the CLI with args and returns the process exit status.
// Diagnostics go to stderr.
func execute(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if v := recover(); v != nil {
			fmt.Fprintf(stderr, "helm2smiles: internal error: %v\n", v)
			code = exitFailure
		}
	}()

	if args == nil {
		args = []string{}
	}
	logger = zap.NewNop()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteC()
	code = exitCode(err)
	switch code {
	case exitOK:
	case exitUsage:
		fmt.Fprintf(stderr, "helm2smiles: %v\n\n", err)
		fmt.Fprint(stderr, cmd.UsageString())
	default:
		if !reportFatal(err) {
			fmt.Fprintf(stderr, "helm2smiles: %v\n", err)
		}
	}
	return code
}

// reportFatal logs err through the configured logger. It reports false when
// no logger was built, so the caller can fall back to plain stderr.
func reportFatal(err error) bool {
	if logger == nil || !logger.Core().Enabled(zap.ErrorLevel) {
		return false
	}
	logger.Error("aborted", zap.String("category", convert.Category(err)), zap.Error(err))
	_ = logger.Sync()
	return true
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
