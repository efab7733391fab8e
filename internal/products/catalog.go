// Package products loads the product catalog used to fill in cart item
// attributes.
package products

import (
	"fmt"
	"maps"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/cartsync/internal/cartvalues"
)

// File is the on-disk catalog format
type File struct {
	Products []cartvalues.Product `yaml:"products"`
}

// Catalog maps product slugs to products. The zero value is an empty catalog.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]cartvalues.Product
}

// New creates a catalog holding the given products
func New(products ...cartvalues.Product) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(products); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a YAML catalog from path
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(file.Products...)
}

// Replace swaps the catalog contents. Slugs must be present and unique.
func (c *Catalog) Replace(products []cartvalues.Product) error {
	next := make(map[string]cartvalues.Product, len(products))
	for i, p := range products {
		if p.ProductSlug == "" {
			return fmt.Errorf("product %d: productSlug is required", i)
		}
		if _, dup := next[p.ProductSlug]; dup {
			return fmt.Errorf("product %d: duplicate productSlug %q", i, p.ProductSlug)
		}
		next[p.ProductSlug] = p
	}

	c.mu.Lock()
	c.products = next
	c.mu.Unlock()
	return nil
}

// Get returns a copy of the catalog keyed by product slug
func (c *Catalog) Get() map[string]cartvalues.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := maps.Clone(c.products)
	if out == nil {
		out = map[string]cartvalues.Product{}
	}
	return out
}

// Lookup returns the product for slug
func (c *Catalog) Lookup(slug string) (cartvalues.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[slug]
	return p, ok
}

// Len returns the number of products
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
