package cartvalues

import "slices"

// ChangeFunc transforms one cart snapshot into the next.
type ChangeFunc func(Cart) Cart

// Flow composes change functions left to right: Flow(f, g)(c) == g(f(c)).
func Flow(fns ...ChangeFunc) ChangeFunc {
	return func(c Cart) Cart {
		for _, fn := range fns {
			c = fn(c)
		}
		return c
	}
}

// FlowRight composes change functions right to left: FlowRight(f, g)(c) == f(g(c)).
func FlowRight(fns ...ChangeFunc) ChangeFunc {
	return func(c Cart) Cart {
		for i := len(fns) - 1; i >= 0; i-- {
			c = fns[i](c)
		}
		return c
	}
}

// Add returns a change that appends item to the cart. An item already in the
// cart is not added twice, and adding a plan replaces any plan in the cart.
func Add(item CartItem) ChangeFunc {
	return func(c Cart) Cart {
		out := c.Clone()
		if out.Contains(item) {
			return out
		}
		if IsPlan(item) {
			out.Products = slices.DeleteFunc(out.Products, IsPlan)
		}
		out.Products = append(out.Products, item.Clone())
		return out
	}
}

// Remove returns a change that drops every item matching item.
func Remove(item CartItem) ChangeFunc {
	return func(c Cart) Cart {
		out := c.Clone()
		out.Products = slices.DeleteFunc(out.Products, item.Same)
		return out
	}
}

// RemoveItemAndDependencies returns a change that removes item together with
// every item that depends on it in the cart being transformed.
func RemoveItemAndDependencies(item CartItem, domainsWithPlansOnly bool) ChangeFunc {
	return func(c Cart) Cart {
		doomed := append([]CartItem{item}, DependentProducts(item, c, domainsWithPlansOnly)...)
		out := c.Clone()
		out.Products = slices.DeleteFunc(out.Products, func(existing CartItem) bool {
			return slices.ContainsFunc(doomed, existing.Same)
		})
		return out
	}
}

// DependentProducts returns the items in cart that cannot stay once item is
// removed, following dependencies transitively. When domainsWithPlansOnly is
// set, removing a plan also takes every domain item with it.
func DependentProducts(item CartItem, cart Cart, domainsWithPlansOnly bool) []CartItem {
	var deps []CartItem
	seen := func(candidate CartItem) bool {
		return candidate.Same(item) || slices.ContainsFunc(deps, candidate.Same)
	}

	queue := []CartItem{item}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, existing := range cart.Products {
			if seen(existing) || !dependsOn(existing, current, domainsWithPlansOnly) {
				continue
			}
			deps = append(deps, existing)
			queue = append(queue, existing)
		}
	}
	return deps
}

func dependsOn(existing, on CartItem, domainsWithPlansOnly bool) bool {
	switch {
	case IsDomainRegistration(on):
		return (IsPrivacyProtection(existing) || IsEmail(existing)) && existing.Meta == on.Meta
	case IsDomainMapping(on):
		return IsEmail(existing) && existing.Meta == on.Meta
	case IsPlan(on):
		return domainsWithPlansOnly && IsDomainItem(existing)
	}
	return false
}

// AddPrivacyToAllDomains returns a change that adds privacy protection for
// every registered domain that does not have it yet.
func AddPrivacyToAllDomains() ChangeFunc {
	return func(c Cart) Cart {
		out := c.Clone()
		for _, item := range c.Products {
			if !IsDomainRegistration(item) {
				continue
			}
			privacy := CartItem{ProductSlug: SlugPrivacyProtection, Meta: item.Meta}
			if !out.Contains(privacy) {
				out.Products = append(out.Products, privacy)
			}
		}
		return out
	}
}

// RemovePrivacyFromAllDomains returns a change that removes every privacy
// protection item.
func RemovePrivacyFromAllDomains() ChangeFunc {
	return func(c Cart) Cart {
		out := c.Clone()
		out.Products = slices.DeleteFunc(out.Products, IsPrivacyProtection)
		return out
	}
}

// ApplyCoupon returns a change that sets the coupon code. Whether the coupon
// applies is decided by the server, so IsCouponApplied is reset.
func ApplyCoupon(code string) ChangeFunc {
	return func(c Cart) Cart {
		out := c.Clone()
		out.Coupon = code
		out.IsCouponApplied = false
		return out
	}
}

// FillInAllCartItemAttributes returns a change that completes every item from
// the product catalog and defaults its volume to 1.
func FillInAllCartItemAttributes(catalog map[string]Product) ChangeFunc {
	return func(c Cart) Cart {
		out := c.Clone()
		for i := range out.Products {
			out.Products[i] = fillInSingleCartItemAttributes(out.Products[i], catalog)
		}
		return out
	}
}

func fillInSingleCartItemAttributes(item CartItem, catalog map[string]Product) CartItem {
	if item.Volume <= 0 {
		item.Volume = 1
	}

	product, ok := catalog[item.ProductSlug]
	if !ok {
		return item
	}

	if item.ProductID == 0 {
		item.ProductID = product.ProductID
	}
	if item.ProductName == "" {
		item.ProductName = product.ProductName
	}
	if item.Cost == 0 {
		item.Cost = product.Cost
	}
	if item.Currency == "" {
		item.Currency = product.Currency
	}
	item.IsDomainRegistration = item.IsDomainRegistration || product.IsDomainRegistration
	return item
}
