package cartvalues

import "strings"

// Well-known product slugs.
const (
	SlugPrivacyProtection = "private_whois"
	SlugDomainMapping     = "domain_map"
	SlugGoogleApps        = "gapps"
	SlugGoogleAppsUnlim   = "gapps_unlimited"
)

var planSlugs = map[string]bool{
	"personal-bundle":  true,
	"value_bundle":     true,
	"business-bundle":  true,
	"ecommerce-bundle": true,
	"jetpack_premium":  true,
	"jetpack_business": true,
	"jetpack_personal": true,
}

// Product is a catalog entry used to fill in cart item attributes.
type Product struct {
	ProductID            int64   `json:"product_id" yaml:"productId"`
	ProductSlug          string  `json:"product_slug" yaml:"productSlug"`
	ProductName          string  `json:"product_name" yaml:"productName"`
	Cost                 float64 `json:"cost" yaml:"cost"`
	Currency             string  `json:"currency" yaml:"currency"`
	IsDomainRegistration bool    `json:"is_domain_registration" yaml:"isDomainRegistration"`
}

// IsPlan reports whether the item is a plan.
func IsPlan(item CartItem) bool {
	return planSlugs[item.ProductSlug]
}

// IsDomainRegistration reports whether the item registers a domain.
func IsDomainRegistration(item CartItem) bool {
	return item.IsDomainRegistration || strings.HasSuffix(item.ProductSlug, "_domain")
}

// IsDomainMapping reports whether the item maps an existing domain.
func IsDomainMapping(item CartItem) bool {
	return item.ProductSlug == SlugDomainMapping
}

// IsPrivacyProtection reports whether the item is privacy protection for a domain.
func IsPrivacyProtection(item CartItem) bool {
	return item.ProductSlug == SlugPrivacyProtection
}

// IsEmail reports whether the item is an email subscription for a domain.
func IsEmail(item CartItem) bool {
	return item.ProductSlug == SlugGoogleApps || item.ProductSlug == SlugGoogleAppsUnlim
}

// IsDomainItem reports whether the item registers or maps a domain.
func IsDomainItem(item CartItem) bool {
	return IsDomainRegistration(item) || IsDomainMapping(item)
}
