package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// City describes one city's sources and its category schema. The
// category list is the closed enumeration for the whole city: every
// region is expected to carry exactly these categories, and each label
// is bound to a named source column rather than a column position.
type City struct {
	Name       string          `yaml:"name"`
	Shapefile  ShapefileSource `yaml:"shapefile"`
	Counts     CountsSource    `yaml:"counts"`
	Categories []Category      `yaml:"categories"`
}

// ShapefileSource locates the boundary shapefile and its ID attributes.
type ShapefileSource struct {
	Path      string `yaml:"path"`
	IDField   string `yaml:"id_field"`
	NameField string `yaml:"name_field"`
	Latin1    bool   `yaml:"latin1"`
}

// CountsSource locates the per-region count table.
type CountsSource struct {
	Path     string `yaml:"path"`
	Format   string `yaml:"format"` // csv or xlsx
	IDColumn string `yaml:"id_column"`
	Sheet    string `yaml:"sheet"`     // xlsx only
	SkipRows int    `yaml:"skip_rows"` // xlsx only
}

// Category binds a category label to its source column.
type Category struct {
	Label  string `yaml:"label"`
	Column string `yaml:"column"`
}

// LoadCity reads and validates a city definition file.
func LoadCity(path string) (*City, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read city file %s", path)
	}

	var city City
	if err := yaml.Unmarshal(data, &city); err != nil {
		return nil, eris.Wrapf(err, "config: parse city file %s", path)
	}
	if err := city.Validate(); err != nil {
		return nil, eris.Wrapf(err, "config: city file %s", path)
	}
	return &city, nil
}

// Validate checks the city definition for completeness.
func (c *City) Validate() error {
	if c.Name == "" {
		return eris.New("city name is required")
	}
	if c.Shapefile.Path == "" {
		return eris.New("shapefile path is required")
	}
	if c.Shapefile.IDField == "" {
		return eris.New("shapefile id_field is required")
	}
	if c.Counts.Path == "" {
		return eris.New("counts path is required")
	}
	if c.Counts.IDColumn == "" {
		return eris.New("counts id_column is required")
	}
	switch c.Counts.Format {
	case "csv", "xlsx":
	default:
		return eris.Errorf("counts format must be csv or xlsx, got %q", c.Counts.Format)
	}
	if len(c.Categories) == 0 {
		return eris.New("at least one category is required")
	}
	labels := make(map[string]bool, len(c.Categories))
	columns := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Label == "" || cat.Column == "" {
			return eris.New("every category needs a label and a column")
		}
		if labels[cat.Label] {
			return eris.Errorf("duplicate category label %q", cat.Label)
		}
		if columns[cat.Column] {
			return eris.Errorf("duplicate category column %q", cat.Column)
		}
		labels[cat.Label] = true
		columns[cat.Column] = true
	}
	return nil
}

// CategoryLabels returns the ordered category enumeration.
func (c *City) CategoryLabels() []string {
	labels := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		labels[i] = cat.Label
	}
	return labels
}

// ColumnMap returns the category label → source column mapping.
func (c *City) ColumnMap() map[string]string {
	m := make(map[string]string, len(c.Categories))
	for _, cat := range c.Categories {
		m[cat.Label] = cat.Column
	}
	return m
}
