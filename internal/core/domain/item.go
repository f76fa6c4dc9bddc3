package domain

import (
	"math"
	"strings"
)

// =============================================================================
// Item
// =============================================================================

// Item is a leaf inventory unit. Items never reference other entities.
// Weight, volume and price are opaque non-negative quantities; the engine
// performs no unit conversion.
type Item struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Function string  `json:"function"`
	Weight   float64 `json:"weight"`
	Volume   float64 `json:"volume"`
	Price    float64 `json:"price"`
	Amount   int     `json:"amount"`
}

// NewItem creates a validated item. The id is assigned by the store.
func NewItem(name, function string, weight, volume, price float64, amount int) (*Item, error) {
	item := &Item{
		Name:     strings.TrimSpace(name),
		Function: function,
		Weight:   weight,
		Volume:   volume,
		Price:    price,
		Amount:   amount,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Validate checks the item's attributes and returns the first violation.
func (i Item) Validate() error {
	if err := ValidateName(i.Name); err != nil {
		return err
	}
	if !nonNegative(i.Weight) {
		return ErrWeightNegative
	}
	if !nonNegative(i.Volume) {
		return ErrVolumeNegative
	}
	if !nonNegative(i.Price) {
		return ErrPriceNegative
	}
	if i.Amount < 0 {
		return ErrAmountNegative
	}
	return nil
}

// =============================================================================
// Validation Functions (Pure)
// =============================================================================

// ValidateName validates an item or pack name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if len([]rune(name)) > 100 {
		return ErrNameTooLong
	}
	return nil
}

// nonNegative rejects NaN and +Inf along with negative values.
func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}
