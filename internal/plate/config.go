package plate

import (
	"fmt"
	"math"
)

// MatchPolicy decides what happens when a candidate matches more than one
// open group.
type MatchPolicy string

const (
	// MatchAll folds the candidate into every matching group.
	MatchAll MatchPolicy = "all"

	// MatchFirst folds the candidate into the earliest-created matching group.
	MatchFirst MatchPolicy = "first"

	// MatchBest folds the candidate into the matching group with the lowest
	// combined size, x and y error.
	MatchBest MatchPolicy = "best"
)

// Config holds the hand-tuned thresholds of the clustering pass.
type Config struct {
	// MinCharNum is the smallest member count of an accepted cluster.
	MinCharNum int `yaml:"min_char_num" json:"min_char_num"`

	// CharSizeErrorRatio bounds |anchor.Height / candidate.Height - 1|.
	CharSizeErrorRatio float64 `yaml:"char_size_error_ratio" json:"char_size_error_ratio"`

	// CharXErrorRatio bounds the horizontal gap, in character widths, minus one.
	CharXErrorRatio float64 `yaml:"char_x_error_ratio" json:"char_x_error_ratio"`

	// CharYErrorRatio bounds the vertical offset relative to the candidate height.
	CharYErrorRatio float64 `yaml:"char_y_error_ratio" json:"char_y_error_ratio"`

	// CharAspectRatio is the canonical character width / height.
	CharAspectRatio float64 `yaml:"char_aspect_ratio" json:"char_aspect_ratio"`

	// MinPixelArea is the smallest admitted bounding-box area in px².
	MinPixelArea int `yaml:"min_pixel_area" json:"min_pixel_area"`

	// MaxAspectRatio and MinAspectRatio bound the admitted width / height.
	MaxAspectRatio float64 `yaml:"max_aspect_ratio" json:"max_aspect_ratio"`
	MinAspectRatio float64 `yaml:"min_aspect_ratio" json:"min_aspect_ratio"`

	// MatchPolicy selects multi-group behaviour. Empty means MatchAll.
	MatchPolicy MatchPolicy `yaml:"match_policy" json:"match_policy"`

	// PaletteSeed seeds the cluster colour generator.
	PaletteSeed uint64 `yaml:"palette_seed" json:"palette_seed"`
}

// DefaultConfig returns the thresholds the algorithm was tuned with.
func DefaultConfig() Config {
	return Config{
		MinCharNum:         6,
		CharSizeErrorRatio: 0.1,
		CharXErrorRatio:    1.5,
		CharYErrorRatio:    0.2,
		CharAspectRatio:    0.6,
		MinPixelArea:       80,
		MaxAspectRatio:     1.0,
		MinAspectRatio:     0.12,
		MatchPolicy:        MatchAll,
		PaletteSeed:        1234,
	}
}

// ConfigError reports a threshold that cannot produce a meaningful pass.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Validate checks every threshold and returns a *ConfigError for the first
// one that is out of range.
func (c Config) Validate() error {
	if c.MinCharNum < 1 {
		return &ConfigError{Field: "min_char_num", Value: c.MinCharNum, Reason: "must be at least 1"}
	}
	ratios := []struct {
		field string
		value float64
	}{
		{"char_size_error_ratio", c.CharSizeErrorRatio},
		{"char_x_error_ratio", c.CharXErrorRatio},
		{"char_y_error_ratio", c.CharYErrorRatio},
		{"char_aspect_ratio", c.CharAspectRatio},
		{"max_aspect_ratio", c.MaxAspectRatio},
	}
	for _, r := range ratios {
		if math.IsNaN(r.value) || math.IsInf(r.value, 0) || r.value <= 0 {
			return &ConfigError{Field: r.field, Value: r.value, Reason: "must be a positive finite number"}
		}
	}
	if c.CharSizeErrorRatio >= 1 {
		return &ConfigError{Field: "char_size_error_ratio", Value: c.CharSizeErrorRatio, Reason: "must be below 1"}
	}
	if c.CharYErrorRatio >= 1 {
		return &ConfigError{Field: "char_y_error_ratio", Value: c.CharYErrorRatio, Reason: "must be below 1"}
	}
	if math.IsNaN(c.MinAspectRatio) || c.MinAspectRatio < 0 {
		return &ConfigError{Field: "min_aspect_ratio", Value: c.MinAspectRatio, Reason: "must not be negative"}
	}
	if c.MinAspectRatio > c.MaxAspectRatio {
		return &ConfigError{Field: "min_aspect_ratio", Value: c.MinAspectRatio, Reason: "must not exceed max_aspect_ratio"}
	}
	if c.MinPixelArea < 0 {
		return &ConfigError{Field: "min_pixel_area", Value: c.MinPixelArea, Reason: "must not be negative"}
	}
	switch c.MatchPolicy {
	case "", MatchAll, MatchFirst, MatchBest:
	default:
		return &ConfigError{Field: "match_policy", Value: c.MatchPolicy, Reason: "must be one of all, first, best"}
	}
	return nil
}

// Admit reports whether a rectangle passes the area and aspect-ratio filter.
func (c Config) Admit(r Rect) bool {
	if r.Width <= 0 || r.Height <= 0 {
		return false
	}
	if r.Area() < c.MinPixelArea {
		return false
	}
	aspect := r.Aspect()
	return aspect >= c.MinAspectRatio && aspect <= c.MaxAspectRatio
}
