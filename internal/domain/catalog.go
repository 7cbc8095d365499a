package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Indicator is a selectable vulnerability indicator.
type Indicator struct {
	Code   string `yaml:"code" json:"code"`
	Name   string `yaml:"name" json:"name"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// Condition is a hydraulic condition predictions were simulated under.
type Condition struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Site holds the page header content.
type Site struct {
	Title     string `yaml:"title" json:"title"`
	SourceURL string `yaml:"source_url" json:"source_url"`
	LabURL    string `yaml:"lab_url" json:"lab_url"`
	LogoURL   string `yaml:"logo_url" json:"logo_url"`
}

// Catalog names everything the dashboard offers for selection.
type Catalog struct {
	Site             Site        `yaml:"site" json:"site"`
	GeneralCondition string      `yaml:"general_condition" json:"general_condition"`
	GeneralTitle     string      `yaml:"general_title" json:"general_title"`
	Indicators       []Indicator `yaml:"indicators" json:"indicators"`
	Conditions       []Condition `yaml:"conditions" json:"conditions"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file, falling back to the embedded one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates YAML catalog content.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that codes are present and unique and that the general
// condition is one of the listed conditions.
func (c *Catalog) Validate() error {
	if len(c.Indicators) == 0 {
		return errors.New("catalog: no indicators")
	}
	if len(c.Conditions) == 0 {
		return errors.New("catalog: no conditions")
	}

	seen := make(map[string]bool)
	for _, ind := range c.Indicators {
		if ind.Code == "" {
			return errors.New("catalog: indicator without code")
		}
		if seen[ind.Code] {
			return fmt.Errorf("catalog: duplicate indicator %q", ind.Code)
		}
		seen[ind.Code] = true
	}

	clear(seen)
	for _, cdt := range c.Conditions {
		if cdt.Code == "" {
			return errors.New("catalog: condition without code")
		}
		if seen[cdt.Code] {
			return fmt.Errorf("catalog: duplicate condition %q", cdt.Code)
		}
		seen[cdt.Code] = true
	}

	if !seen[c.GeneralCondition] {
		return fmt.Errorf("catalog: general condition %q is not a listed condition", c.GeneralCondition)
	}
	return nil
}

// Indicator looks up an indicator by code.
func (c *Catalog) Indicator(code string) (Indicator, bool) {
	for _, ind := range c.Indicators {
		if ind.Code == code {
			return ind, true
		}
	}
	return Indicator{}, false
}

// Condition looks up a condition by code.
func (c *Catalog) Condition(code string) (Condition, bool) {
	for _, cdt := range c.Conditions {
		if cdt.Code == code {
			return cdt, true
		}
	}
	return Condition{}, false
}

// ResolveIndicator validates a user-supplied indicator code. An empty code is
// accepted and means no selection.
func (c *Catalog) ResolveIndicator(code string) (string, error) {
	if code == "" {
		return "", nil
	}
	if _, ok := c.Indicator(code); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownIndicator, code)
	}
	return code, nil
}
