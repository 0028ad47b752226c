package taxonomy

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/stylelens/backend/internal/domain"
)

// seedFile is the on-disk shape of the taxonomy seed
type seedFile struct {
	Attributes []domain.AttributeDefinition `yaml:"attributes"`
}

// Repository serves attribute definitions loaded from a YAML seed file. The
// admin CRUD surface that maintains the taxonomy lives outside this service;
// here the loaded list is an immutable snapshot that can be swapped
// wholesale via Reload.
type Repository struct {
	mu    sync.RWMutex
	attrs []domain.AttributeDefinition
}

// NewFromFile loads the taxonomy seed from path
func NewFromFile(path string) (*Repository, error) {
	r := &Repository{}
	if err := r.Reload(path); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the seed file and swaps the snapshot
func (r *Repository) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read taxonomy seed: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse taxonomy seed: %w", err)
	}
	if err := validateSeed(seed.Attributes); err != nil {
		return err
	}

	r.mu.Lock()
	r.attrs = seed.Attributes
	r.mu.Unlock()
	return nil
}

// AttributesForCategory returns a copy of the attribute list so callers hold
// a stable per-request snapshot. The current taxonomy applies to all
// categories; structural applicability is decided downstream by the garment
// rules, not by serving different schemas per category.
func (r *Repository) AttributesForCategory(ctx context.Context, categoryLabel string) ([]domain.AttributeDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.attrs) == 0 {
		return nil, domain.ErrTaxonomyUnavailable
	}

	snapshot := make([]domain.AttributeDefinition, len(r.attrs))
	copy(snapshot, r.attrs)
	return snapshot, nil
}

// validateSeed rejects seeds that would break pipeline invariants
func validateSeed(attrs []domain.AttributeDefinition) error {
	seenKeys := make(map[string]bool, len(attrs))
	for i := range attrs {
		def := &attrs[i]
		if def.Key == "" {
			return fmt.Errorf("taxonomy attribute %d has an empty key", i)
		}
		if seenKeys[def.Key] {
			return fmt.Errorf("duplicate taxonomy attribute key %q", def.Key)
		}
		seenKeys[def.Key] = true

		if def.ValueType != domain.ValueTypeFreeText && def.ValueType != domain.ValueTypeControlled {
			return fmt.Errorf("attribute %q has invalid value type %q", def.Key, def.ValueType)
		}
		if def.ConfidenceThreshold < 0 || def.ConfidenceThreshold > 100 {
			return fmt.Errorf("attribute %q has out-of-range confidence threshold %d", def.Key, def.ConfidenceThreshold)
		}

		if def.ValueType == domain.ValueTypeControlled {
			if len(def.AllowedValues) == 0 {
				return fmt.Errorf("controlled attribute %q has no allowed values", def.Key)
			}
			seenShort := make(map[string]bool, len(def.AllowedValues))
			for _, av := range def.AllowedValues {
				if av.ShortForm == "" {
					return fmt.Errorf("attribute %q has an allowed value with empty short form", def.Key)
				}
				if seenShort[av.ShortForm] {
					return fmt.Errorf("attribute %q has duplicate short form %q", def.Key, av.ShortForm)
				}
				seenShort[av.ShortForm] = true
			}
		}
	}
	return nil
}
