// internal/core/domain/location.go
package domain

import (
	"fmt"
	"strings"
)

// Category is a product category. It also drives default placement.
type Category string

// Category constants
const (
	CategoryFrozen    Category = "frozen"
	CategoryChilled   Category = "chilled"
	CategoryDairy     Category = "dairy"
	CategoryMeat      Category = "meat"
	CategoryProduce   Category = "produce"
	CategoryDry       Category = "dry"
	CategoryGrocery   Category = "grocery"
	CategoryBakery    Category = "bakery"
	CategoryCanned    Category = "canned"
	CategoryBeverage  Category = "beverage"
	CategoryGeneral   Category = "general"
	CategoryNonFood   Category = "non_food"
	CategoryHousehold Category = "household"
)

// LocationType classifies a storage location by its climate
type LocationType string

const (
	LocationFrozen  LocationType = "frozen"
	LocationChilled LocationType = "chilled"
	LocationDry     LocationType = "dry"
	LocationGeneral LocationType = "general"
)

// Default location names
const (
	LocationFreezerA1 = "Freezer-A1"
	LocationCoolerB1  = "Cooler-B1"
	LocationCoolerB2  = "Cooler-B2"
	LocationDryC1     = "Dry-C1"
	LocationGeneralD1 = "General-D1"

	// GeneralLocation receives anything no other rule places
	GeneralLocation = LocationGeneralD1
)

var categoryLocations = map[Category]string{
	CategoryFrozen:   LocationFreezerA1,
	CategoryChilled:  LocationCoolerB1,
	CategoryDairy:    LocationCoolerB1,
	CategoryMeat:     LocationCoolerB1,
	CategoryProduce:  LocationCoolerB1,
	CategoryDry:      LocationDryC1,
	CategoryGrocery:  LocationDryC1,
	CategoryBakery:   LocationDryC1,
	CategoryCanned:   LocationDryC1,
	CategoryBeverage: LocationDryC1,
}

// NormalizeCategory lower-cases and trims a raw category value
func NormalizeCategory(raw string) Category {
	c := strings.ToLower(strings.TrimSpace(raw))
	c = strings.ReplaceAll(c, " ", "_")
	if c == "" {
		return CategoryGeneral
	}
	return Category(c)
}

// DefaultLocationFor returns the static default location for a category.
// Unmatched categories go to GeneralLocation.
func DefaultLocationFor(category Category) string {
	if loc, ok := categoryLocations[NormalizeCategory(string(category))]; ok {
		return loc
	}
	return GeneralLocation
}

// StorageLocation is a named place that can hold stock.
// CurrentUsage is advisory bookkeeping; item ledgers are authoritative.
type StorageLocation struct {
	Name         string       `json:"name"`
	Type         LocationType `json:"type"`
	Capacity     int          `json:"capacity"`
	CurrentUsage int          `json:"current_usage"`
	Temperature  string       `json:"temperature,omitempty"`
}

// Validate performs domain validation on the location
func (l *StorageLocation) Validate() error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return fmt.Errorf("%w: location name is required", ErrInvalidInput)
	}
	if l.Capacity < 0 {
		return fmt.Errorf("%w: capacity cannot be negative", ErrInvalidInput)
	}
	if l.CurrentUsage < 0 {
		l.CurrentUsage = 0
	}
	if l.Type == "" {
		l.Type = LocationGeneral
	}
	return nil
}

// Available is the advisory free capacity, never below zero
func (l StorageLocation) Available() int {
	if free := l.Capacity - l.CurrentUsage; free > 0 {
		return free
	}
	return 0
}

// DefaultLocations is the seed set used when no locations are registered
func DefaultLocations() []StorageLocation {
	return []StorageLocation{
		{Name: LocationFreezerA1, Type: LocationFrozen, Capacity: 500, Temperature: "-18C"},
		{Name: LocationCoolerB1, Type: LocationChilled, Capacity: 800, Temperature: "2-4C"},
		{Name: LocationCoolerB2, Type: LocationChilled, Capacity: 800, Temperature: "2-4C"},
		{Name: LocationDryC1, Type: LocationDry, Capacity: 2000, Temperature: "ambient"},
		{Name: LocationGeneralD1, Type: LocationGeneral, Capacity: 5000, Temperature: "ambient"},
	}
}
