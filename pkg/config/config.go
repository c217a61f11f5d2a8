package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TierConfig is one brand tier entry from scoring.toml. Order in the
// file is the order tiers are checked in.
type TierConfig struct {
	Name       string   `toml:"name"`
	Multiplier float64  `toml:"multiplier"`
	Brands     []string `toml:"brands"`
}

// CuratedConfig is a manually curated boost list.
type CuratedConfig struct {
	Boost float64  `toml:"boost"`
	Names []string `toml:"names"`
}

type Thresholds struct {
	MinRating  float64 `toml:"min_rating"`
	MinReviews int     `toml:"min_reviews"`
}

type ScoringConfig struct {
	TopN        int           `toml:"top_n"`
	Thresholds  Thresholds    `toml:"thresholds"`
	Tiers       []TierConfig  `toml:"tiers"`
	Bestsellers CuratedConfig `toml:"bestsellers"`
	Classics    CuratedConfig `toml:"classics"`
}

type ValidationConfig struct {
	MinYear        int `toml:"min_year"`
	MaxYearAhead   int `toml:"max_year_ahead"`
	MaxSamplePrice int `toml:"max_sample_price"`
}

type ImportConfig struct {
	BatchSize int `toml:"batch_size"`
}

// File is the full scoring.toml shape: every boost table, threshold
// and limit the pipeline consumes. Nothing in here is hard-coded in
// the core packages; they receive these values through their
// context parameters.
type File struct {
	Scoring    ScoringConfig    `toml:"scoring"`
	Validation ValidationConfig `toml:"validation"`
	Import     ImportConfig     `toml:"import"`
}

// Load reads and parses a TOML configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if f.Import.BatchSize <= 0 {
		f.Import.BatchSize = 100
	}
	return &f, nil
}
