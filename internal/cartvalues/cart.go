// Package cartvalues holds the shopping cart value types and the pure
// transforms that the cart store applies to them.
//
// A Cart is treated as an immutable value: every transform receives a cart
// and returns a new one, and never writes through the input's slices or maps.
package cartvalues

import (
	"maps"
	"slices"
	"strconv"
)

// Key identifies the active cart: a site identifier or NoSiteKey.
type Key string

// NoSiteKey is the cart key used while no site is selected.
const NoSiteKey Key = "no-site"

// String returns the key as a string
func (k Key) String() string {
	return string(k)
}

// SiteRef is the minimal view of a site needed to resolve a cart key.
type SiteRef interface {
	SiteID() int64
}

// KeyForSite resolves the cart key for a site. A nil site resolves to NoSiteKey.
func KeyForSite(site SiteRef) Key {
	if site == nil {
		return NoSiteKey
	}
	return Key(strconv.FormatInt(site.SiteID(), 10))
}

// Cart is a full snapshot of the shopping cart.
type Cart struct {
	CartKey         Key        `json:"cart_key,omitempty"`
	Products        []CartItem `json:"products"`
	Coupon          string     `json:"coupon,omitempty"`
	IsCouponApplied bool       `json:"is_coupon_applied"`
	TotalCost       float64    `json:"total_cost"`
	Currency        string     `json:"currency,omitempty"`
	Temporary       bool       `json:"temporary,omitempty"`
}

// CartItem is a single product selection in a cart. Two items are the same
// selection when their ProductSlug and Meta match.
type CartItem struct {
	ProductID            int64             `json:"product_id,omitempty"`
	ProductSlug          string            `json:"product_slug"`
	ProductName          string            `json:"product_name,omitempty"`
	Meta                 string            `json:"meta,omitempty"`
	Cost                 float64           `json:"cost,omitempty"`
	Currency             string            `json:"currency,omitempty"`
	Volume               int               `json:"volume,omitempty"`
	FreeTrial            bool              `json:"free_trial,omitempty"`
	IsDomainRegistration bool              `json:"is_domain_registration,omitempty"`
	Extra                map[string]string `json:"extra,omitempty"`
}

// Empty returns an empty cart for the given key.
func Empty(key Key) Cart {
	return Cart{CartKey: key, Products: []CartItem{}}
}

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	out := c
	out.Products = make([]CartItem, len(c.Products))
	for i, item := range c.Products {
		out.Products[i] = item.Clone()
	}
	return out
}

// Clone returns a deep copy of the item.
func (i CartItem) Clone() CartItem {
	out := i
	if i.Extra != nil {
		out.Extra = maps.Clone(i.Extra)
	}
	return out
}

// Same reports whether both items refer to the same product selection.
func (i CartItem) Same(other CartItem) bool {
	return i.ProductSlug == other.ProductSlug && i.Meta == other.Meta
}

// Equal reports whether two carts hold the same state.
func (c Cart) Equal(other Cart) bool {
	if c.CartKey != other.CartKey ||
		c.Coupon != other.Coupon ||
		c.IsCouponApplied != other.IsCouponApplied ||
		c.TotalCost != other.TotalCost ||
		c.Currency != other.Currency ||
		c.Temporary != other.Temporary {
		return false
	}
	return slices.EqualFunc(c.Products, other.Products, func(a, b CartItem) bool {
		return a.Equal(b)
	})
}

// Equal reports whether two items are identical in every attribute.
func (i CartItem) Equal(other CartItem) bool {
	return i.ProductID == other.ProductID &&
		i.ProductSlug == other.ProductSlug &&
		i.ProductName == other.ProductName &&
		i.Meta == other.Meta &&
		i.Cost == other.Cost &&
		i.Currency == other.Currency &&
		i.Volume == other.Volume &&
		i.FreeTrial == other.FreeTrial &&
		i.IsDomainRegistration == other.IsDomainRegistration &&
		maps.Equal(i.Extra, other.Extra)
}

// ItemCount returns the number of items in the cart.
func (c Cart) ItemCount() int {
	return len(c.Products)
}

// Subtotal sums item costs, counting each item's volume. Free trials are free.
func (c Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Products {
		if item.FreeTrial {
			continue
		}
		volume := item.Volume
		if volume <= 0 {
			volume = 1
		}
		total += item.Cost * float64(volume)
	}
	return total
}

// Contains reports whether the cart holds an item matching the given one.
func (c Cart) Contains(item CartItem) bool {
	return slices.ContainsFunc(c.Products, item.Same)
}
