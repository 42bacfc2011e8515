package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/rapidstruct/internal/region"
)

// Cleanup removes the named structures from store in order and returns the
// names it removed. Names not in the store are skipped, so calling Cleanup
// again with the same names changes nothing.
func Cleanup(store region.Store, names []string) ([]string, error) {
	removed := []string{}
	var errs []error

	for _, name := range names {
		if _, ok := store.Find(name); !ok {
			continue
		}
		if err := store.Remove(region.StructureRef{Name: name}); err != nil {
			if errors.Is(err, region.ErrNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("failed to remove %q: %w", name, err))
			continue
		}
		removed = append(removed, name)
	}

	return removed, errors.Join(errs...)
}
