package pricing

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Item is one sellable thing. UnitAmount is in the currency's minor units.
type Item struct {
	Name       string `yaml:"name"`
	UnitAmount int64  `yaml:"unit_amount"`
	Currency   string `yaml:"currency"`
}

// Catalog maps plan and add-on identifiers to their checkout pricing. The
// identifiers are the same strings stored on Subscription.Plan and
// AddOn.AddonType.
type Catalog struct {
	Plans  map[string]Item `yaml:"plans"`
	AddOns map[string]Item `yaml:"add_ons"`
}

// Default returns the built-in catalog used when no file is configured.
func Default() *Catalog {
	return &Catalog{
		Plans: map[string]Item{
			"basic":    {Name: "PerfoEvolution Basic Plan", UnitAmount: 2999, Currency: "usd"},
			"advanced": {Name: "PerfoEvolution Advanced Plan", UnitAmount: 4999, Currency: "usd"},
		},
		AddOns: map[string]Item{
			"ebook": {Name: "PerfoEvolution Training Ebook", UnitAmount: 1999, Currency: "usd"},
			"zoom":  {Name: "PerfoEvolution Zoom Session", UnitAmount: 3999, Currency: "usd"},
			"ai":    {Name: "PerfoEvolution AI Program", UnitAmount: 999, Currency: "usd"},
		},
	}
}

// Load reads the catalog from path. An empty path returns the default
// catalog; a missing or invalid file is an error so misconfiguration fails
// at startup rather than at checkout time.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse pricing catalog: %w", err)
	}
	if len(catalog.Plans) == 0 && len(catalog.AddOns) == 0 {
		return nil, fmt.Errorf("pricing catalog %s is empty", path)
	}
	for id, item := range catalog.Plans {
		if err := validateItem(id, item); err != nil {
			return nil, err
		}
	}
	for id, item := range catalog.AddOns {
		if err := validateItem(id, item); err != nil {
			return nil, err
		}
	}
	return &catalog, nil
}

func validateItem(id string, item Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("pricing item %q missing name", id)
	}
	if item.UnitAmount <= 0 {
		return fmt.Errorf("pricing item %q has non-positive unit_amount", id)
	}
	return nil
}

func (c *Catalog) Plan(id string) (Item, bool) {
	item, ok := c.Plans[id]
	return item, ok
}

func (c *Catalog) AddOn(id string) (Item, bool) {
	item, ok := c.AddOns[id]
	return item, ok
}
