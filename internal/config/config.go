// Package config resolves join settings from defaults, config files and
// command line overrides.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/mjoin/pkg/mergejoin"
)

// ConfigFileName is the default project config file name.
const ConfigFileName = ".mjoin.json"

// Stream holds separators shared by several streams.
type Stream struct {
	Delimiter  string `json:"delimiter,omitempty"`
	Terminator string `json:"terminator,omitempty"`
}

// Side holds the settings of one input.
type Side struct {
	Delimiter  string `json:"delimiter,omitempty"`
	Terminator string `json:"terminator,omitempty"`
	Key        []int  `json:"key,omitempty"`
}

// File is one configuration layer, as found in a config file or built from
// command line flags. Empty values leave the layer below in place.
//
// Separators are resolved by specificity: a per-side value beats an
// input-wide value, which beats the shared one, no matter which layer each
// came from.
type File struct {
	Delimiter  string `json:"delimiter,omitempty"`
	Terminator string `json:"terminator,omitempty"`
	Key        []int  `json:"key,omitempty"`

	Input  Stream `json:"input"`
	Output Stream `json:"output"`
	Left   Side   `json:"left"`
	Right  Side   `json:"right"`

	Header *bool `json:"header,omitempty"`
	// Show lists the emitted categories: matched, left, right.
	Show []string `json:"show,omitempty"`

	BufferSize    int `json:"buffer_size,omitempty"`
	MaxBufferSize int `json:"max_buffer_size,omitempty"`
}

// Config is the resolved configuration.
type Config struct {
	Left  mergejoin.SideOptions
	Right mergejoin.SideOptions

	OutDelimiter  byte
	OutTerminator byte

	Policy mergejoin.Policy
	Header bool

	BufferSize    int
	MaxBufferSize int

	// EffectiveCwd is the absolute working directory (from -C or os.Getwd).
	EffectiveCwd string

	Sources Sources
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// JoinOptions converts the configuration for [mergejoin.New].
func (c Config) JoinOptions() mergejoin.Options {
	return mergejoin.Options{
		Left:          c.Left,
		Right:         c.Right,
		Policy:        c.Policy,
		Header:        c.Header,
		BufferSize:    c.BufferSize,
		MaxBufferSize: c.MaxBufferSize,
	}
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	Overrides       File              // command line flags
	Env             map[string]string // environment variables
	// DefaultBufferSize is used when no layer sets buffer_size.
	DefaultBufferSize int
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/mjoin/config.json or $XDG_CONFIG_HOME/mjoin/config.json)
// 3. Project config file at default location (.mjoin.json, if exists)
// 4. Explicit config file via ConfigPath (replaces 3, must exist)
// 5. CLI overrides.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("cannot resolve working directory: %w", err)
	}

	var (
		merged  File
		sources Sources
	)

	globalPath := globalConfigPath(input.Env)
	if globalPath != "" {
		globalCfg, loaded, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			sources.Global = globalPath
			merged = mergeFiles(merged, globalCfg)
		}
	}

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	sources.Project = projectPath
	merged = mergeFiles(merged, projectCfg)
	merged = mergeFiles(merged, input.Overrides)

	if merged.BufferSize == 0 {
		merged.BufferSize = input.DefaultBufferSize
	}

	cfg, err := resolve(merged)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir
	cfg.Sources = sources

	return cfg, nil
}

// globalConfigPath returns $XDG_CONFIG_HOME/mjoin/config.json if set,
// otherwise ~/.config/mjoin/config.json. Empty if neither can be determined.
func globalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "mjoin", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "mjoin", "config.json")
	}

	return ""
}

// loadProjectConfig loads .mjoin.json from workDir, or configPath if given.
func loadProjectConfig(workDir, configPath string) (File, string, error) {
	if configPath == "" {
		path := filepath.Join(workDir, ConfigFileName)

		cfg, loaded, err := loadConfigFile(path, false)
		if err != nil || !loaded {
			return File{}, "", err
		}

		return cfg, path, nil
	}

	path := configPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	_, statErr := os.Stat(path)
	if statErr != nil {
		return File{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	}

	cfg, _, err := loadConfigFile(path, true)
	if err != nil {
		return File{}, "", err
	}

	return cfg, path, nil
}

// loadConfigFile loads a config file. If mustExist is false, a missing or
// unreadable file is skipped.
func loadConfigFile(path string, mustExist bool) (File, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if mustExist {
			return File{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return File{}, false, nil
	}

	cfg, err := parseFile(data)
	if err != nil {
		return File{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parseFile(data []byte) (File, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return File{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg File

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	err = dec.Decode(&cfg)
	if err != nil {
		return File{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeFiles(base, overlay File) File {
	base.Delimiter = pick(overlay.Delimiter, base.Delimiter)
	base.Terminator = pick(overlay.Terminator, base.Terminator)
	base.Input.Delimiter = pick(overlay.Input.Delimiter, base.Input.Delimiter)
	base.Input.Terminator = pick(overlay.Input.Terminator, base.Input.Terminator)
	base.Output.Delimiter = pick(overlay.Output.Delimiter, base.Output.Delimiter)
	base.Output.Terminator = pick(overlay.Output.Terminator, base.Output.Terminator)
	base.Left = mergeSide(base.Left, overlay.Left)
	base.Right = mergeSide(base.Right, overlay.Right)

	if len(overlay.Key) > 0 {
		base.Key = overlay.Key
	}

	if overlay.Header != nil {
		base.Header = overlay.Header
	}

	if len(overlay.Show) > 0 {
		base.Show = overlay.Show
	}

	if overlay.BufferSize != 0 {
		base.BufferSize = overlay.BufferSize
	}

	if overlay.MaxBufferSize != 0 {
		base.MaxBufferSize = overlay.MaxBufferSize
	}

	return base
}

func mergeSide(base, overlay Side) Side {
	base.Delimiter = pick(overlay.Delimiter, base.Delimiter)
	base.Terminator = pick(overlay.Terminator, base.Terminator)

	if len(overlay.Key) > 0 {
		base.Key = overlay.Key
	}

	return base
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func resolve(f File) (Config, error) {
	var (
		cfg Config
		err error
	)

	cfg.Left, err = resolveSide("left", f.Left, f)
	if err != nil {
		return Config{}, err
	}

	cfg.Right, err = resolveSide("right", f.Right, f)
	if err != nil {
		return Config{}, err
	}

	cfg.OutDelimiter, err = resolveByte("output delimiter", f.Output.Delimiter, f.Delimiter, ",")
	if err != nil {
		return Config{}, err
	}

	cfg.OutTerminator, err = resolveByte("output terminator", f.Output.Terminator, f.Terminator, "\n")
	if err != nil {
		return Config{}, err
	}

	cfg.Policy, err = parseShow(f.Show)
	if err != nil {
		return Config{}, err
	}

	cfg.Header = f.Header != nil && *f.Header
	cfg.BufferSize = f.BufferSize
	cfg.MaxBufferSize = f.MaxBufferSize

	err = cfg.JoinOptions().Validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func resolveSide(name string, s Side, f File) (mergejoin.SideOptions, error) {
	delim, err := resolveByte(name+" delimiter", s.Delimiter, f.Input.Delimiter, f.Delimiter, ",")
	if err != nil {
		return mergejoin.SideOptions{}, err
	}

	term, err := resolveByte(name+" terminator", s.Terminator, f.Input.Terminator, f.Terminator, "\n")
	if err != nil {
		return mergejoin.SideOptions{}, err
	}

	key := s.Key
	if len(key) == 0 {
		key = f.Key
	}

	if len(key) == 0 {
		key = []int{1}
	}

	return mergejoin.SideOptions{Delimiter: delim, Terminator: term, Key: key}, nil
}

func resolveByte(name string, candidates ...string) (byte, error) {
	b, err := ParseByte(pick(candidates...))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	return b, nil
}

// ParseByte parses a separator: a single byte or one of the escapes
// \t \n \r \0 \\.
func ParseByte(s string) (byte, error) {
	switch s {
	case `\t`:
		return '\t', nil
	case `\n`:
		return '\n', nil
	case `\r`:
		return '\r', nil
	case `\0`:
		return 0, nil
	case `\\`:
		return '\\', nil
	}

	if len(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidByte, s)
	}

	return s[0], nil
}

// FormatByte renders a separator the way ParseByte accepts it.
func FormatByte(b byte) string {
	switch b {
	case '\t':
		return `\t`
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case 0:
		return `\0`
	case '\\':
		return `\\`
	default:
		return string([]byte{b})
	}
}

// ParseKey parses a comma separated list of 1-based field positions.
func ParseKey(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	parts := strings.Split(s, ",")
	key := make([]int, 0, len(parts))

	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, s)
		}

		key = append(key, n)
	}

	return key, nil
}

// FormatKey renders a key the way ParseKey accepts it.
func FormatKey(key []int) string {
	parts := make([]string, len(key))
	for i, k := range key {
		parts[i] = strconv.Itoa(k)
	}

	return strings.Join(parts, ",")
}

func parseShow(show []string) (mergejoin.Policy, error) {
	var matched, left, right bool

	for _, s := range show {
		switch strings.TrimSpace(s) {
		case "matched", "both":
			matched = true
		case "left":
			left = true
		case "right":
			right = true
		default:
			return mergejoin.Policy{}, fmt.Errorf("%w: %q", ErrInvalidShow, s)
		}
	}

	return mergejoin.NewPolicy(matched, left, right), nil
}
