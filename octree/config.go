package octree

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Config describes how a locator subdivides space and deduplicates points.
type Config struct {
	// MaxPointsPerLeaf is the number of points a leaf holds before it splits.
	// Zero selects DefaultMaxPointsPerLeaf; other values are clamped to
	// [MinMaxPointsPerLeaf, MaxMaxPointsPerLeaf].
	MaxPointsPerLeaf int `json:"max_points_per_leaf,omitempty"`
	// Tolerance is the distance within which an inserted point is considered a
	// duplicate of an existing one. Zero means exact coordinate equality.
	Tolerance float64 `json:"tolerance,omitempty"`
	// BuildCubicOctree makes the root a cube enclosing the supplied bounds.
	BuildCubicOctree bool `json:"build_cubic_octree,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.MaxPointsPerLeaf < 0 {
		return errors.Errorf("%s: max_points_per_leaf must not be negative, got %d", path, cfg.MaxPointsPerLeaf)
	}
	if cfg.Tolerance < 0 {
		return errors.Errorf("%s: tolerance must not be negative, got %v", path, cfg.Tolerance)
	}
	return nil
}

// NewConfigFromAttributes decodes a config from a generic attribute map, such
// as one parsed from JSON, using the json field names.
func NewConfigFromAttributes(attributes map[string]interface{}) (*Config, error) {
	var conf Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &conf,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "cannot decode octree locator config")
	}
	if err := conf.Validate("octree"); err != nil {
		return nil, err
	}
	return &conf, nil
}
