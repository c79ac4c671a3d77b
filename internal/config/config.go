// Package config loads the TOML pipeline configuration cmd/siko reads
// before running the ownership-and-drop pipeline: diagnostic limits, which
// simplification passes are enabled, and the implicit-clone policy.
// BurntSushi/toml decodes the file into a plain struct pre-filled with
// Default(), so a key the file leaves out keeps its default value; the
// decode metadata is not consulted.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// SimplifyPasses toggles each of the five ownership-dependent
// simplification passes. All default to true; a TOML file only needs to
// set the ones it wants off.
type SimplifyPasses struct {
	ConstFold        bool `toml:"const_fold"`
	DeadCode         bool `toml:"dead_code"`
	VariableSimplify bool `toml:"variable_simplify"`
	UnusedAssign     bool `toml:"unused_assign"`
	Inline           bool `toml:"inline"`
}

// ClonePolicy controls when the drop checker's implicit-clone rewrite
// is allowed to fire.
type ClonePolicy struct {
	// AllowImplicitClone permits the drop checker to rewrite a Copy-typed
	// collision into a clone call instead of reporting it. Disabling this
	// turns every would-be-cloned collision back into a hard diagnostic,
	// useful for a pedantic/CI profile that wants moves made explicit.
	AllowImplicitClone bool `toml:"allow_implicit_clone"`
	// WarnOnClone is decoded from the file, but no pipeline stage reads it:
	// clone sites are resolved silently and no
	// diag.DropImplicitCloneAdded diagnostic is reported for them.
	WarnOnClone bool `toml:"warn_on_clone"`
}

// PipelineConfig is the root of a siko.toml pipeline configuration file.
type PipelineConfig struct {
	MaxDiagnostics   int            `toml:"max_diagnostics"`
	WarningsAsErrors bool           `toml:"warnings_as_errors"`
	Simplify         SimplifyPasses `toml:"simplify"`
	Clone            ClonePolicy    `toml:"clone"`
	Cache            CacheConfig    `toml:"cache"`
}

// CacheConfig controls internal/cache's on-disk artifact cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the configuration cmd/siko uses when no siko.toml is
// present: all simplification passes on, implicit clone allowed and quiet,
// a generous diagnostic cap, and the cache enabled at its standard
// location (empty Dir; internal/cache resolves XDG_CACHE_HOME itself).
func Default() PipelineConfig {
	return PipelineConfig{
		MaxDiagnostics: 200,
		Simplify: SimplifyPasses{
			ConstFold:        true,
			DeadCode:         true,
			VariableSimplify: true,
			UnusedAssign:     true,
			Inline:           true,
		},
		Clone: ClonePolicy{
			AllowImplicitClone: true,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
	}
}

// Load reads and decodes a siko.toml pipeline configuration file, starting
// from Default() and overriding only the sections and keys the file
// actually sets; toml.Decode leaves untouched struct fields at their
// pre-decode (default) value rather than zeroing them, so an absent
// [clone] table keeps ClonePolicy at its default.
func Load(path string) (PipelineConfig, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return PipelineConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if cfg.MaxDiagnostics <= 0 {
		return PipelineConfig{}, fmt.Errorf("%s: max_diagnostics must be positive", path)
	}
	return cfg, nil
}
