// Package config assembles the run settings of plate-locator.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// PLATE_* environment variables. Command-line flags are applied on top by the
// caller. Load validates the result before returning it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/plate-locator/internal/detection"
	"github.com/ironsheep/plate-locator/internal/imaging"
	"github.com/ironsheep/plate-locator/internal/plate"
)

// Settings holds everything a batch run or the server needs.
type Settings struct {
	Plate plate.Config       `yaml:"plate"`
	Edge  imaging.EdgeParams `yaml:"edge"`

	// Extractor names the outline extractor, see detection.NewExtractor.
	Extractor string `yaml:"extractor"`

	// Workers bounds the number of images processed at once.
	Workers int `yaml:"workers"`

	// Summary additionally writes summary.yaml next to output.txt.
	Summary bool `yaml:"summary"`

	// LogLevel is "info" or "debug".
	LogLevel string `yaml:"log_level"`
}

// Default returns the tuned defaults.
func Default() *Settings {
	return &Settings{
		Plate:     plate.DefaultConfig(),
		Edge:      imaging.DefaultEdgeParams(),
		Extractor: "trace",
		Workers:   runtime.NumCPU(),
		LogLevel:  "info",
	}
}

// Debug reports whether debug logging is enabled.
func (s *Settings) Debug() bool {
	return s.LogLevel == "debug"
}

// Validate checks the clustering thresholds, the edge parameters and the run
// options.
func (s *Settings) Validate() error {
	if err := s.Plate.Validate(); err != nil {
		return err
	}
	if err := s.Edge.Validate(); err != nil {
		return fmt.Errorf("invalid edge parameters: %w", err)
	}
	if s.Workers < 1 {
		return &plate.ConfigError{Field: "workers", Value: s.Workers, Reason: "must be at least 1"}
	}
	if _, err := detection.NewExtractor(s.Extractor); err != nil {
		return &plate.ConfigError{Field: "extractor", Value: s.Extractor, Reason: err.Error()}
	}
	switch s.LogLevel {
	case "", "info", "debug":
	default:
		return &plate.ConfigError{Field: "log_level", Value: s.LogLevel, Reason: "must be info or debug"}
	}
	return nil
}

// Load builds Settings from the defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates them.
func Load(path string) (*Settings, error) {
	s := Default()
	if path != "" {
		if err := s.ReadFile(path); err != nil {
			return nil, err
		}
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return s, nil
}

// ReadFile overlays the YAML document at path. Keys missing from the file
// keep their current values.
func (s *Settings) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Encode writes the settings to w as a YAML document.
func (s *Settings) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return enc.Close()
}

// WriteFile stores the settings as YAML, e.g. to seed a config file.
func (s *Settings) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if err := s.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// EnvError reports an environment variable that could not be parsed.
type EnvError struct {
	Name  string
	Value string
	Cause error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("invalid %s=%q: %v", e.Name, e.Value, e.Cause)
}

func (e *EnvError) Unwrap() error {
	return e.Cause
}

// envBinding maps one environment variable onto a settings field.
type envBinding struct {
	name string
	set  func(s *Settings, v string) error
}

var envBindings = []envBinding{
	{"PLATE_MIN_CHAR_NUM", func(s *Settings, v string) error { return setInt(&s.Plate.MinCharNum, v) }},
	{"PLATE_CHAR_SIZE_ERROR_RATIO", func(s *Settings, v string) error { return setFloat(&s.Plate.CharSizeErrorRatio, v) }},
	{"PLATE_CHAR_X_ERROR_RATIO", func(s *Settings, v string) error { return setFloat(&s.Plate.CharXErrorRatio, v) }},
	{"PLATE_CHAR_Y_ERROR_RATIO", func(s *Settings, v string) error { return setFloat(&s.Plate.CharYErrorRatio, v) }},
	{"PLATE_CHAR_ASPECT_RATIO", func(s *Settings, v string) error { return setFloat(&s.Plate.CharAspectRatio, v) }},
	{"PLATE_MIN_PIXEL_AREA", func(s *Settings, v string) error { return setInt(&s.Plate.MinPixelArea, v) }},
	{"PLATE_MAX_ASPECT_RATIO", func(s *Settings, v string) error { return setFloat(&s.Plate.MaxAspectRatio, v) }},
	{"PLATE_MIN_ASPECT_RATIO", func(s *Settings, v string) error { return setFloat(&s.Plate.MinAspectRatio, v) }},
	{"PLATE_MATCH_POLICY", func(s *Settings, v string) error {
		s.Plate.MatchPolicy = plate.MatchPolicy(v)
		return nil
	}},
	{"PLATE_PALETTE_SEED", func(s *Settings, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		s.Plate.PaletteSeed = n
		return nil
	}},
	{"PLATE_BLUR_RADIUS", func(s *Settings, v string) error { return setFloat(&s.Edge.BlurRadius, v) }},
	{"PLATE_SHARPEN_CENTER", func(s *Settings, v string) error { return setFloat(&s.Edge.SharpenCenter, v) }},
	{"PLATE_CANNY_LOW", func(s *Settings, v string) error { return setFloat(&s.Edge.ThresholdLow, v) }},
	{"PLATE_CANNY_HIGH", func(s *Settings, v string) error { return setFloat(&s.Edge.ThresholdHigh, v) }},
	{"PLATE_EXTRACTOR", func(s *Settings, v string) error {
		s.Extractor = v
		return nil
	}},
	{"PLATE_WORKERS", func(s *Settings, v string) error { return setInt(&s.Workers, v) }},
	{"PLATE_SUMMARY", func(s *Settings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.Summary = b
		return nil
	}},
	{"PLATE_LOG_LEVEL", func(s *Settings, v string) error {
		s.LogLevel = v
		return nil
	}},
}

// ApplyEnv overlays every PLATE_* variable that lookup reports as set.
// Empty values are ignored.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		v, ok := lookup(b.name)
		if !ok || v == "" {
			continue
		}
		if err := b.set(s, v); err != nil {
			return &EnvError{Name: b.name, Value: v, Cause: err}
		}
	}
	return nil
}

// EnvNames lists the recognised environment variables.
func EnvNames() []string {
	names := make([]string, len(envBindings))
	for i, b := range envBindings {
		names[i] = b.name
	}
	return names
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}
