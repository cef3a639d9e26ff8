// Package engine wires the token stream, parser, analyzer, and DFG pool
// into one driver (spec §2, §5, §6): the only package a host embedding
// this compiler core needs to import directly.
package engine

import (
	"io"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Options configures one compilation unit (spec §6 "External interfaces").
// The zero value is not valid; use DefaultOptions or LoadOptions.
type Options struct {
	// CoreLibraryDir is the special import directory name under which the
	// intrinsic-backed standard library is reachable (spec §4.2, §6
	// "Builtins may be referenced only from modules imported under the
	// special radian library directory"). Default "radian".
	CoreLibraryDir string `yaml:"core_library_dir"`

	// ImportDirs lists the search directories a host Importer should
	// consult when resolving a bare import name, in priority order. The
	// engine itself never touches the filesystem; this only threads
	// configuration through to the host-provided Importer.
	ImportDirs []string `yaml:"import_dirs"`

	// LogLevel names the hclog level ("trace", "debug", "info", "warn",
	// "error", "off") the engine's default logger is constructed at when
	// the caller does not supply its own Logger.
	LogLevel string `yaml:"log_level"`
}

// DefaultOptions returns the engine's out-of-the-box configuration.
func DefaultOptions() Options {
	return Options{CoreLibraryDir: "radian", LogLevel: "off"}
}

// LoadOptions reads an Options value from YAML, the same config-file idiom
// used to read an inspector profile, starting from DefaultOptions so an
// omitted field keeps its default.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		return Options{}, err
	}
	return opts, nil
}

// Logger builds the hclog.Logger this Options' LogLevel describes, named
// "engine"; sub-loggers for the pipeline's other stages are obtained via
// Logger.Named by the engine itself.
func (o Options) Logger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "engine",
		Level: hclog.LevelFromString(o.LogLevel),
	})
}
