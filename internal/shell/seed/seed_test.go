package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/artpar/packlist/internal/core/domain"
	"github.com/artpar/packlist/internal/shell/inventory"
	"github.com/artpar/packlist/internal/shell/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hikingSeed = `
items:
  - name: A
    weight: 2
    amount: 10
  - name: B
    function: spare
    weight: 3
    amount: 4
packs:
  - name: X
    items:
      - name: A
        selected: 2
      - name: B
        selected: 1
  - name: Y
    function: weekend
    items:
      - name: A
        selected: 1
    packs:
      - name: X
        selected: 2
`

func setupTestService(t *testing.T) *inventory.Service {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return inventory.NewService(s, domain.Defaults{}, nil)
}

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse(t *testing.T) {
	f, err := Parse([]byte(hikingSeed))
	require.NoError(t, err)

	require.Len(t, f.Items, 2)
	assert.Equal(t, "spare", f.Items[1].Function)
	require.Len(t, f.Packs, 2)
	assert.Equal(t, []Ref{{Name: "X", Selected: 2}}, f.Packs[1].Packs)
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Items)
	assert.Empty(t, f.Packs)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "duplicate item",
			yaml:    "items:\n  - name: A\n  - name: A\n",
			wantErr: domain.ErrValidation,
		},
		{
			name:    "duplicate pack",
			yaml:    "packs:\n  - name: P\n  - name: P\n",
			wantErr: domain.ErrValidation,
		},
		{
			name:    "forward pack reference",
			yaml:    "packs:\n  - name: P\n    packs:\n      - name: Q\n        selected: 1\n  - name: Q\n",
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown item",
			yaml:    "packs:\n  - name: P\n    items:\n      - name: ghost\n        selected: 1\n",
			wantErr: domain.ErrValidation,
		},
		{
			name:    "self reference",
			yaml:    "packs:\n  - name: P\n    packs:\n      - name: P\n        selected: 1\n",
			wantErr: domain.ErrSelfInclusion,
		},
		{
			name:    "empty name",
			yaml:    "items:\n  - weight: 1\n",
			wantErr: domain.ErrNameRequired,
		},
		{
			name:    "negative selected",
			yaml:    "items:\n  - name: A\npacks:\n  - name: P\n    items:\n      - name: A\n        selected: -1\n",
			wantErr: domain.ErrSelectedNegative,
		},
		{
			name:    "duplicate member",
			yaml:    "items:\n  - name: A\npacks:\n  - name: P\n    items:\n      - name: A\n        selected: 1\n      - name: \" A \"\n        selected: 2\n",
			wantErr: domain.ErrSelectionDuplicate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("items:\n  - name: A\n    colour: red\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(hikingSeed), 0644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Packs, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// =============================================================================
// Apply Tests
// =============================================================================

func TestApply(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	f, err := Parse([]byte(hikingSeed))
	require.NoError(t, err)

	result, err := Apply(ctx, svc, f, nil)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.Len(t, result.Packs, 2)

	y, err := svc.ResolveAttributes(ctx, result.Packs["Y"])
	require.NoError(t, err)
	assert.Equal(t, "weekend", y.Function)
	assert.InDelta(t, 16.0, y.Weight, 1e-9)
	assert.Equal(t, domain.Bounded(2), y.Buildable)
}

func TestApply_TrimmedNames(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	f, err := Parse([]byte("items:\n  - name: \" A \"\n    weight: 2\n    amount: 3\npacks:\n  - name: P\n    items:\n      - name: \"A  \"\n        selected: 1\n  - name: \" Q\"\n    packs:\n      - name: \" P \"\n        selected: 2\n"))
	require.NoError(t, err)

	result, err := Apply(ctx, svc, f, nil)
	require.NoError(t, err)
	require.Contains(t, result.Items, "A")
	require.Contains(t, result.Packs, "Q")

	q, err := svc.ResolveAttributes(ctx, result.Packs["Q"])
	require.NoError(t, err)
	assert.InDelta(t, 4.0, q.Weight, 1e-9)
	assert.Equal(t, domain.Bounded(1), q.Buildable)
}

func TestApply_NegativeSelectedWritesNothing(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	f := &File{
		Items: []Item{{Name: "A"}, {Name: "B"}},
		Packs: []Pack{{Name: "P", Items: []Ref{{Name: "A", Selected: -1}}}},
	}

	_, err := Apply(ctx, svc, f, nil)
	assert.ErrorIs(t, err, domain.ErrSelectedNegative)
	assertEmpty(t, svc)
}

func TestApply_FailedWriteRollsBack(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	f := &File{
		Items: []Item{{Name: "A", Amount: 1}, {Name: "B", Weight: -1}},
		Packs: []Pack{{Name: "P", Items: []Ref{{Name: "A", Selected: 1}}}},
	}

	_, err := Apply(ctx, svc, f, nil)
	assert.ErrorIs(t, err, domain.ErrWeightNegative)
	assertEmpty(t, svc)

	applied, err := ApplyIfEmpty(ctx, svc, f, nil)
	assert.ErrorIs(t, err, domain.ErrWeightNegative)
	assert.False(t, applied)
	assertEmpty(t, svc)

	f.Items[1].Weight = 1
	applied, err = ApplyIfEmpty(ctx, svc, f, nil)
	require.NoError(t, err)
	assert.True(t, applied, "a failed seed must not block the next attempt")

	items, err := svc.ListItems(ctx, store.DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func assertEmpty(t *testing.T, svc *inventory.Service) {
	t.Helper()
	ctx := context.Background()
	items, err := svc.ListItems(ctx, store.DefaultListOptions())
	require.NoError(t, err)
	assert.Empty(t, items)
	packs, err := svc.ListPacks(ctx, store.DefaultListOptions())
	require.NoError(t, err)
	assert.Empty(t, packs)
}

func TestApplyIfEmpty(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	f, err := Parse([]byte(hikingSeed))
	require.NoError(t, err)

	applied, err := ApplyIfEmpty(ctx, svc, f, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = ApplyIfEmpty(ctx, svc, f, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	items, err := svc.ListItems(ctx, store.DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, items, 2, "second call must not duplicate the seed")
}
