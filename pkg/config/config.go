package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	BackendInternal = "internal"
	BackendShared   = "shared"

	SpatialIndexRtree = "rtree"
	SpatialIndexH3    = "h3"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	DatasetDir string `yaml:"dataset_dir" validate:"required"`
	// Backend picks the in memory copy or the shared pebble attachment. For
	// the shared backend DatasetDir is the pebble directory.
	Backend      string `yaml:"backend" validate:"oneof=internal shared"`
	SpatialIndex string `yaml:"spatial_index" validate:"oneof=rtree h3"`
	CellIndexDir string `yaml:"cell_index_dir" validate:"required_if=SpatialIndex h3"`

	// SmallComponentSize is only read when a dataset is built from OSM.
	SmallComponentSize int     `yaml:"small_component_size" validate:"gt=0"`
	RtreeMinChildren   int     `yaml:"rtree_min_children" validate:"gte=2"`
	RtreeMaxChildren   int     `yaml:"rtree_max_children" validate:"gtefield=RtreeMinChildren"`
	NameCacheSize      int     `yaml:"name_cache_size" validate:"gt=0"`
	MaxSearchRadius    float64 `yaml:"max_search_radius" validate:"gt=0"`

	ListenAddr string `yaml:"listen_addr" validate:"required"`
	LogLevel   string `yaml:"log_level" validate:"oneof=trace debug info warn error"`
}

func Default() Config {
	return Config{
		DatasetDir:         "./data/dataset",
		Backend:            BackendInternal,
		SpatialIndex:       SpatialIndexRtree,
		SmallComponentSize: 1000,
		RtreeMinChildren:   25,
		RtreeMaxChildren:   50,
		NameCacheSize:      4096,
		MaxSearchRadius:    20000,
		ListenAddr:         ":5000",
		LogLevel:           "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
		}
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.RtreeMaxChildren < 2*c.RtreeMinChildren {
		return fmt.Errorf("%w: rtree_max_children must be at least twice rtree_min_children", ErrInvalidConfig)
	}
	return nil
}

func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
