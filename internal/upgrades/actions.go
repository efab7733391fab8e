// Package upgrades defines the cart actions carried on the action bus and the
// creators that build them.
package upgrades

import (
	"errors"
	"fmt"

	"github.com/stacklok/cartsync/internal/cartvalues"
)

// ErrInvalidAction is returned when an action payload is malformed.
var ErrInvalidAction = errors.New("invalid action")

// Kind tags the payload of an Action.
type Kind string

// Cart action kinds.
const (
	CartDisable                 Kind = "CART_DISABLE"
	CartPrivacyProtectionAdd    Kind = "CART_PRIVACY_PROTECTION_ADD"
	CartPrivacyProtectionRemove Kind = "CART_PRIVACY_PROTECTION_REMOVE"
	CartItemsAdd                Kind = "CART_ITEMS_ADD"
	CartCouponApply             Kind = "CART_COUPON_APPLY"
	CartItemRemove              Kind = "CART_ITEM_REMOVE"
)

// Known reports whether k is one of the cart action kinds.
func (k Kind) Known() bool {
	switch k {
	case CartDisable, CartPrivacyProtectionAdd, CartPrivacyProtectionRemove,
		CartItemsAdd, CartCouponApply, CartItemRemove:
		return true
	}
	return false
}

// Action is a tagged payload delivered on the action bus. Only the fields
// relevant to Type are set.
type Action struct {
	Type                 Kind                  `json:"type"`
	CartItems            []cartvalues.CartItem `json:"cartItems,omitempty"`
	Coupon               string                `json:"coupon,omitempty"`
	CartItem             *cartvalues.CartItem  `json:"cartItem,omitempty"`
	DomainsWithPlansOnly bool                  `json:"domainsWithPlansOnly,omitempty"`
}

// Validate checks that the payload carries what its kind needs.
// Unknown kinds are valid; handlers ignore them.
func (a Action) Validate() error {
	switch a.Type {
	case "":
		return fmt.Errorf("%w: type is required", ErrInvalidAction)
	case CartItemsAdd:
		if len(a.CartItems) == 0 {
			return fmt.Errorf("%w: %s requires at least one cart item", ErrInvalidAction, a.Type)
		}
		for i, item := range a.CartItems {
			if item.ProductSlug == "" {
				return fmt.Errorf("%w: cartItems[%d]: product_slug is required", ErrInvalidAction, i)
			}
		}
	case CartCouponApply:
		if a.Coupon == "" {
			return fmt.Errorf("%w: %s requires a coupon", ErrInvalidAction, a.Type)
		}
	case CartItemRemove:
		if a.CartItem == nil || a.CartItem.ProductSlug == "" {
			return fmt.Errorf("%w: %s requires a cart item", ErrInvalidAction, a.Type)
		}
	}
	return nil
}

// DisableCart suspends cart functionality.
func DisableCart() Action {
	return Action{Type: CartDisable}
}

// AddPrivacyToAllDomains adds privacy protection to every domain in the cart.
func AddPrivacyToAllDomains() Action {
	return Action{Type: CartPrivacyProtectionAdd}
}

// RemovePrivacyFromAllDomains removes privacy protection from every domain in the cart.
func RemovePrivacyFromAllDomains() Action {
	return Action{Type: CartPrivacyProtectionRemove}
}

// AddItems adds items to the cart in order.
func AddItems(items ...cartvalues.CartItem) Action {
	return Action{Type: CartItemsAdd, CartItems: items}
}

// AddItem adds a single item to the cart.
func AddItem(item cartvalues.CartItem) Action {
	return AddItems(item)
}

// ApplyCoupon applies a coupon code to the cart.
func ApplyCoupon(coupon string) Action {
	return Action{Type: CartCouponApply, Coupon: coupon}
}

// RemoveItem removes an item and the items that depend on it.
func RemoveItem(item cartvalues.CartItem, domainsWithPlansOnly bool) Action {
	return Action{Type: CartItemRemove, CartItem: &item, DomainsWithPlansOnly: domainsWithPlansOnly}
}
