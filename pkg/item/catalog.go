package item

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
)

var ErrUnknownItem = errors.New("unknown item")

// Catalog holds the item templates supplied by the data source. Lookups
// always return clones so templates are never handed out.
type Catalog struct {
	byName map[string]Item
	order  []string
	logger *slog.Logger
}

// NewCatalog validates every template. The first template wins when two
// share a name; later duplicates are logged and skipped.
func NewCatalog(items []Item, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Catalog{
		byName: make(map[string]Item, len(items)),
		logger: logger,
	}

	var errs []error
	for i, it := range items {
		if err := it.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		if _, exists := c.byName[it.Name]; exists {
			logger.Warn("Duplicate item template skipped", "item", it.Name, "row", i)
			continue
		}
		c.byName[it.Name] = it.Clone()
		c.order = append(c.order, it.Name)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Get returns a clone of the named template.
func (c *Catalog) Get(name string) (Item, error) {
	it, ok := c.byName[name]
	if !ok {
		c.logger.Warn("Item not found in catalog", "item", name)
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownItem, name)
	}
	return it.Clone(), nil
}

// Random picks a template uniformly using rng.
func (c *Catalog) Random(rng *rand.Rand) (Item, error) {
	if len(c.order) == 0 {
		return Item{}, fmt.Errorf("%w: catalog is empty", ErrUnknownItem)
	}
	name := c.order[rng.IntN(len(c.order))]
	return c.byName[name].Clone(), nil
}

// Names returns the template names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	sort.Strings(names)
	return names
}

func (c *Catalog) Len() int {
	return len(c.order)
}
