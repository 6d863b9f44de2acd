package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Staging   Endpoint  `yaml:"staging"`
	Warehouse Endpoint  `yaml:"warehouse"`
	Segments  []Segment `yaml:"segments"`
	Seeder    Seeder    `yaml:"seeder"`
	LogMode   string    `yaml:"log_mode"`
}

// Endpoint names one side of the transform: the staging source or the
// warehouse destination. Driver is one of "mysql", "postgres", or (staging
// only) "mongo". Database is the Mongo database name and ignored for SQL
// drivers, whose DSN already carries it.
type Endpoint struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
}

// Segment is one tier of the customer segmentation ladder. A customer lands
// in the segment with the highest MinSpent that does not exceed their total
// spend (lower bound inclusive).
type Segment struct {
	Name     string  `yaml:"name"`
	MinSpent float64 `yaml:"min_spent"`
}

type Seeder struct {
	PageViews int `yaml:"page_views"`
	CartAdds  int `yaml:"cart_adds"`
	Purchases int `yaml:"purchases"`
	Reviews   int `yaml:"reviews"`
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(file, config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if len(c.Segments) == 0 {
		c.Segments = DefaultSegments()
	}
	if c.LogMode == "" {
		c.LogMode = "dev"
	}
	if c.Seeder == (Seeder{}) {
		c.Seeder = Seeder{PageViews: 100, CartAdds: 30, Purchases: 20, Reviews: 15}
	}
}

func (c *Config) Validate() error {
	switch c.Staging.Driver {
	case "mysql", "postgres", "mongo":
	default:
		return fmt.Errorf("unsupported staging driver: %q", c.Staging.Driver)
	}
	if c.Staging.Driver == "mongo" && c.Staging.Database == "" {
		return fmt.Errorf("mongo staging requires a database name")
	}
	switch c.Warehouse.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported warehouse driver: %q", c.Warehouse.Driver)
	}

	return ValidateSegments(c.Segments)
}

// ValidateSegments requires a zero-floor tier so every spend amount lands in
// exactly one segment, and rejects duplicate floors, which would make the
// winning tier ambiguous.
func ValidateSegments(segments []Segment) error {
	if len(segments) == 0 {
		return fmt.Errorf("at least one customer segment is required")
	}
	hasFloor := false
	seen := make(map[float64]string, len(segments))
	for _, s := range segments {
		if s.Name == "" {
			return fmt.Errorf("segment with min_spent %v has no name", s.MinSpent)
		}
		if s.MinSpent < 0 {
			return fmt.Errorf("segment %q has negative min_spent", s.Name)
		}
		if s.MinSpent == 0 {
			hasFloor = true
		}
		if prev, ok := seen[s.MinSpent]; ok {
			return fmt.Errorf("segments %q and %q share min_spent %v", prev, s.Name, s.MinSpent)
		}
		seen[s.MinSpent] = s.Name
	}
	if !hasFloor {
		return fmt.Errorf("one segment must have min_spent 0")
	}
	return nil
}

// SortedSegments returns the tiers ordered by descending MinSpent, the order
// segment resolution walks them in.
func SortedSegments(segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	sort.Slice(out, func(i, j int) bool { return out[i].MinSpent > out[j].MinSpent })
	return out
}

func DefaultSegments() []Segment {
	return []Segment{
		{Name: "bronze", MinSpent: 0},
		{Name: "silver", MinSpent: 100},
		{Name: "gold", MinSpent: 1000},
	}
}
