package cartstore

import (
	"context"

	"github.com/stacklok/cartsync/internal/cartvalues"
	"github.com/stacklok/cartsync/internal/logger"
	"github.com/stacklok/cartsync/internal/upgrades"
)

// HandleAction applies a cart action to the store. Unknown action kinds are
// ignored.
func (s *Store) HandleAction(_ context.Context, action upgrades.Action) {
	var change cartvalues.ChangeFunc

	switch action.Type {
	case upgrades.CartDisable:
		s.Disable()
		return
	case upgrades.CartPrivacyProtectionAdd:
		change = cartvalues.AddPrivacyToAllDomains()
	case upgrades.CartPrivacyProtectionRemove:
		change = cartvalues.RemovePrivacyFromAllDomains()
	case upgrades.CartItemsAdd:
		adds := make([]cartvalues.ChangeFunc, 0, len(action.CartItems))
		for _, item := range action.CartItems {
			adds = append(adds, cartvalues.Add(item))
		}
		change = cartvalues.Flow(adds...)
	case upgrades.CartCouponApply:
		change = cartvalues.ApplyCoupon(action.Coupon)
	case upgrades.CartItemRemove:
		if action.CartItem == nil {
			logger.Warnf("Ignoring %s action without a cart item", action.Type)
			return
		}
		change = cartvalues.RemoveItemAndDependencies(*action.CartItem, action.DomainsWithPlansOnly)
	default:
		return
	}

	if err := s.Update(change); err != nil {
		logger.Warnf("Dropping %s action: %v", action.Type, err)
	}
}
