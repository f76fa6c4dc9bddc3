// Package seed imports items and packs from a YAML file.
//
// Packs refer to items and other packs by name. Entries are applied in file
// order through the inventory service, so every sub-pack edge passes the
// cycle guard like any other write. A seed is applied in one transaction:
// it lands completely or not at all.
//
// Example file:
//
//	items:
//	  - name: Stove
//	    weight: 0.4
//	    amount: 1
//	packs:
//	  - name: Kitchen
//	    items:
//	      - name: Stove
//	        selected: 1
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/artpar/packlist/internal/core/domain"
	"github.com/artpar/packlist/internal/shell/inventory"
	"github.com/artpar/packlist/internal/shell/store"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// File Format
// =============================================================================

// File is the content of a seed file.
type File struct {
	Items []Item `yaml:"items"`
	Packs []Pack `yaml:"packs"`
}

// Item describes one item to create.
type Item struct {
	Name     string  `yaml:"name"`
	Function string  `yaml:"function"`
	Weight   float64 `yaml:"weight"`
	Volume   float64 `yaml:"volume"`
	Price    float64 `yaml:"price"`
	Amount   int     `yaml:"amount"`
}

// Pack describes one pack and its members.
type Pack struct {
	Name     string `yaml:"name"`
	Function string `yaml:"function"`
	Items    []Ref  `yaml:"items"`
	Packs    []Ref  `yaml:"packs"`
}

// Ref names a member defined earlier in the file.
type Ref struct {
	Name     string `yaml:"name"`
	Selected int    `yaml:"selected"`
}

// Result maps the names in a seed file to the ids they were stored under.
type Result struct {
	Items map[string]int64
	Packs map[string]int64
}

// =============================================================================
// Parsing
// =============================================================================

// Parse decodes and validates a seed file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads and parses the seed file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Validate checks names and references without touching the store.
// Names must be unique per kind, and a pack may only reference items and
// packs that appear before it.
func (f *File) Validate() error {
	items := make(map[string]bool, len(f.Items))
	for i, item := range f.Items {
		name := strings.TrimSpace(item.Name)
		if err := domain.ValidateName(name); err != nil {
			return fmt.Errorf("seed item #%d: %w", i+1, err)
		}
		if items[name] {
			return invalid("duplicate item name %q", name)
		}
		items[name] = true
	}

	packs := make(map[string]bool, len(f.Packs))
	for i, pack := range f.Packs {
		name := strings.TrimSpace(pack.Name)
		if err := domain.ValidateName(name); err != nil {
			return fmt.Errorf("seed pack #%d: %w", i+1, err)
		}
		if packs[name] {
			return invalid("duplicate pack name %q", name)
		}
		if err := validateRefs(name, pack.Items); err != nil {
			return err
		}
		if err := validateRefs(name, pack.Packs); err != nil {
			return err
		}
		for _, ref := range pack.Items {
			if !items[strings.TrimSpace(ref.Name)] {
				return invalid("pack %q references unknown item %q", name, ref.Name)
			}
		}
		for _, ref := range pack.Packs {
			refName := strings.TrimSpace(ref.Name)
			if refName == name {
				return fmt.Errorf("seed pack %q: %w", name, domain.ErrSelfInclusion)
			}
			if !packs[refName] {
				return invalid("pack %q references pack %q before it is defined", name, ref.Name)
			}
		}
		packs[name] = true
	}

	return nil
}

// validateRefs applies the selection rules to one member list of a pack.
func validateRefs(pack string, refs []Ref) error {
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		name := strings.TrimSpace(ref.Name)
		if seen[name] {
			return fmt.Errorf("seed pack %q member %q: %w", pack, name, domain.ErrSelectionDuplicate)
		}
		seen[name] = true
		if ref.Selected < 0 {
			return fmt.Errorf("seed pack %q member %q: %w", pack, name, domain.ErrSelectedNegative)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("seed: %s: %w", fmt.Sprintf(format, args...), domain.ErrValidation)
}

// =============================================================================
// Applying
// =============================================================================

// Apply creates every item and then every pack of f through svc, in one
// transaction.
func Apply(ctx context.Context, svc *inventory.Service, f *File, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var result *Result
	err := svc.WithTx(ctx, func(tx *inventory.Service) error {
		var err error
		result, err = apply(ctx, tx, f)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("seed applied", "items", len(result.Items), "packs", len(result.Packs))
	return result, nil
}

// ApplyIfEmpty applies f only when the store holds no items and no packs.
// The check and the writes share one transaction. It reports whether the
// seed was applied.
func ApplyIfEmpty(ctx context.Context, svc *inventory.Service, f *File, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := f.Validate(); err != nil {
		return false, err
	}

	var result *Result
	err := svc.WithTx(ctx, func(tx *inventory.Service) error {
		empty, err := isEmpty(ctx, tx)
		if err != nil || !empty {
			return err
		}
		result, err = apply(ctx, tx, f)
		return err
	})
	if err != nil || result == nil {
		return false, err
	}

	logger.Info("seed applied", "items", len(result.Items), "packs", len(result.Packs))
	return true, nil
}

func isEmpty(ctx context.Context, svc *inventory.Service) (bool, error) {
	first := store.ListOptions{Limit: 1}
	items, err := svc.ListItems(ctx, first)
	if err != nil {
		return false, err
	}
	packs, err := svc.ListPacks(ctx, first)
	if err != nil {
		return false, err
	}
	return len(items) == 0 && len(packs) == 0, nil
}

func apply(ctx context.Context, svc *inventory.Service, f *File) (*Result, error) {
	result := &Result{
		Items: make(map[string]int64, len(f.Items)),
		Packs: make(map[string]int64, len(f.Packs)),
	}

	for _, si := range f.Items {
		item, err := svc.CreateItem(ctx, inventory.ItemInput{
			Name:     si.Name,
			Function: si.Function,
			Weight:   si.Weight,
			Volume:   si.Volume,
			Price:    si.Price,
			Amount:   si.Amount,
		})
		if err != nil {
			return nil, fmt.Errorf("seed item %q: %w", si.Name, err)
		}
		result.Items[item.Name] = item.ID
	}

	for _, sp := range f.Packs {
		items, err := resolveRefs(sp.Items, result.Items)
		if err != nil {
			return nil, fmt.Errorf("seed pack %q: %w", sp.Name, err)
		}
		packs, err := resolveRefs(sp.Packs, result.Packs)
		if err != nil {
			return nil, fmt.Errorf("seed pack %q: %w", sp.Name, err)
		}

		pack, err := svc.CreatePack(ctx, inventory.PackInput{
			Name:     sp.Name,
			Function: sp.Function,
			Items:    &items,
			Packs:    &packs,
		})
		if err != nil {
			return nil, fmt.Errorf("seed pack %q: %w", sp.Name, err)
		}
		result.Packs[pack.Name] = pack.ID
	}

	return result, nil
}

func resolveRefs(refs []Ref, ids map[string]int64) (domain.Selection, error) {
	entries := make([]domain.SelectionEntry, 0, len(refs))
	for _, ref := range refs {
		id, ok := ids[strings.TrimSpace(ref.Name)]
		if !ok {
			return domain.Selection{}, invalid("unknown member %q", ref.Name)
		}
		entries = append(entries, domain.SelectionEntry{ID: id, Selected: ref.Selected})
	}
	return domain.NewSelection(entries)
}
