// Package config loads oedit's CLI configuration, resolving a
// defaults -> global file -> project file -> CLI-flag precedence
// chain so the most specific source always wins.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// ErrConfigFileNotFound is returned when an explicitly named config file
// (-c/--config) does not exist.
var ErrConfigFileNotFound = errors.New("config file not found")

// Config holds oedit's CLI-level configuration. The edit core itself
// (package omegaedit) takes no configuration of its own; everything here
// is resolved before a [omegaedit.Open] call.
type Config struct {
	// CheckpointDir overrides omegaedit.OpenOptions.CheckpointDir for every
	// session opened by the CLI. Empty means "let the library resolve it".
	CheckpointDir string `json:"checkpoint_dir,omitempty"`

	// SaveFlags selects the default collision policy oedit's --save option
	// (on the insert, delete and overwrite subcommands) uses: "none",
	// "overwrite", or "force".
	SaveFlags string `json:"save_flags,omitempty"`

	// HistoryFile is where cmd/oedit-repl persists its liner history.
	HistoryFile string `json:"history_file,omitempty"`
}

// ConfigFileName is the default per-project config file name.
const ConfigFileName = ".oedit.json"

// DefaultConfig returns oedit's built-in defaults.
func DefaultConfig() Config {
	return Config{
		SaveFlags: "none",
	}
}

// LoadInput holds the inputs to [Load].
type LoadInput struct {
	WorkDir           string            // defaults to os.Getwd() when empty
	ConfigPath        string            // -c/--config flag value
	CheckpointDirFlag string            // --checkpoint-dir flag value
	Env               map[string]string // environment, for $XDG_CONFIG_HOME/$HOME
}

// Load resolves configuration with precedence (highest wins): defaults,
// global user config ($XDG_CONFIG_HOME/oedit/config.json or
// ~/.config/oedit/config.json), project config (.oedit.json), then CLI
// flag overrides. JSON files are parsed as JSONC (comments and trailing
// commas allowed) via [hujson.Standardize], so a checked-in config can
// carry inline documentation.
func Load(in LoadInput) (Config, error) {
	workDir := in.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("config: getwd: %w", err)
		}

		workDir = wd
	}

	cfg := DefaultConfig()

	if globalPath := globalConfigPath(in.Env); globalPath != "" {
		globalCfg, loaded, err := loadFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = merge(cfg, globalCfg)
		}
	}

	projectPath := in.ConfigPath
	mustExist := projectPath != ""

	if projectPath == "" {
		projectPath = filepath.Join(workDir, ConfigFileName)
	} else if !filepath.IsAbs(projectPath) {
		projectPath = filepath.Join(workDir, projectPath)
	}

	projectCfg, loaded, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = merge(cfg, projectCfg)
	}

	if in.CheckpointDirFlag != "" {
		cfg.CheckpointDir = in.CheckpointDirFlag
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "oedit", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "oedit", "config.json")
	}

	return ""
}

func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}

			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("config: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("config: %s: invalid JSONC: %w", path, err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("config: %s: invalid JSON: %w", path, err)
	}

	return cfg, true, nil
}

func merge(base, overlay Config) Config {
	if overlay.CheckpointDir != "" {
		base.CheckpointDir = overlay.CheckpointDir
	}

	if overlay.SaveFlags != "" {
		base.SaveFlags = overlay.SaveFlags
	}

	if overlay.HistoryFile != "" {
		base.HistoryFile = overlay.HistoryFile
	}

	return base
}

func validate(cfg Config) error {
	switch cfg.SaveFlags {
	case "none", "overwrite", "force":
	default:
		return fmt.Errorf("config: save_flags: unknown value %q", cfg.SaveFlags)
	}

	return nil
}
