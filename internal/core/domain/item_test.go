package domain

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Item Tests
// =============================================================================

func TestNewItem_ValidInput(t *testing.T) {
	item, err := NewItem("  Tent ", "shelter", 2.5, 30, 199.9, 2)
	require.NoError(t, err)

	assert.Zero(t, item.ID)
	assert.Equal(t, "Tent", item.Name)
	assert.Equal(t, "shelter", item.Function)
	assert.Equal(t, 2.5, item.Weight)
	assert.Equal(t, 30.0, item.Volume)
	assert.Equal(t, 199.9, item.Price)
	assert.Equal(t, 2, item.Amount)
}

func TestNewItem_ZeroValuesAllowed(t *testing.T) {
	_, err := NewItem("Spoon", "", 0, 0, 0, 0)
	assert.NoError(t, err)
}

func TestItemValidate(t *testing.T) {
	testCases := []struct {
		name    string
		item    Item
		wantErr error
	}{
		{"empty name", Item{Name: "   "}, ErrNameRequired},
		{"long name", Item{Name: strings.Repeat("a", 101)}, ErrNameTooLong},
		{"negative weight", Item{Name: "x", Weight: -1}, ErrWeightNegative},
		{"NaN weight", Item{Name: "x", Weight: math.NaN()}, ErrWeightNegative},
		{"negative volume", Item{Name: "x", Volume: -0.1}, ErrVolumeNegative},
		{"infinite price", Item{Name: "x", Price: math.Inf(1)}, ErrPriceNegative},
		{"negative amount", Item{Name: "x", Amount: -3}, ErrAmountNegative},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.item.Validate()
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidateName_MultibyteLength(t *testing.T) {
	assert.NoError(t, ValidateName(strings.Repeat("ä", 100)))
	assert.ErrorIs(t, ValidateName(strings.Repeat("ä", 101)), ErrNameTooLong)
}

// =============================================================================
// Pack Tests
// =============================================================================

func TestNewPack(t *testing.T) {
	pack, err := NewPack("Kitchen ", "cooking")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", pack.Name)
	assert.Equal(t, "cooking", pack.Function)

	_, err = NewPack("", "cooking")
	assert.ErrorIs(t, err, ErrNameRequired)
}

// =============================================================================
// Error Kind Tests
// =============================================================================

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrSelfInclusion, ErrIntegrityViolation)
	assert.ErrorIs(t, ErrCycle, ErrIntegrityViolation)
	assert.ErrorIs(t, ErrMissingMember, ErrIntegrityViolation)
	assert.ErrorIs(t, ErrSelectedNotPositive, ErrValidation)
	assert.NotErrorIs(t, ErrCycle, ErrValidation)
	assert.Equal(t, "inclusion would create a cycle", ErrCycle.Error())
}
