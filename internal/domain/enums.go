package domain

import (
	"sort"
	"strings"
)

// EnumSet is a closed set of accepted lowercase values for a custom-data
// field. Unrecognized values are validation errors, never silently dropped.
type EnumSet map[string]struct{}

func newEnumSet(values ...string) EnumSet {
	s := make(EnumSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports membership after trimming and lowercasing.
func (s EnumSet) Contains(v string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// Values returns the accepted values sorted, for error messages.
func (s EnumSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

var (
	Availabilities = newEnumSet(
		"in stock", "out of stock", "preorder", "available for order", "discontinued",
	)
	Conditions = newEnumSet("new", "refurbished", "used")
	PaymentMethods = newEnumSet(
		"credit_card", "debit_card", "pix", "boleto", "paypal",
		"apple_pay", "google_pay", "bank_transfer", "wallet",
	)
	PaymentStatuses = newEnumSet(
		"paid", "pending", "refused", "refunded", "chargeback",
	)
	DeliveryCategories = newEnumSet("home_delivery", "in_store", "curbside")
	CustomerTypes      = newEnumSet("new", "returning", "subscriber")
	OrderSources       = newEnumSet(
		"web", "mobile_app", "instagram", "facebook_shop", "marketplace",
	)
	DiscountTypes = newEnumSet("percentage", "fixed_amount", "free_shipping", "bogo")
	WishlistTypes = newEnumSet("default", "favorites", "gift", "birthday")
	UserIntents   = newEnumSet("browsing", "research", "comparison", "purchase_intent")
)
