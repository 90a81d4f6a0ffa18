// Package validate turns raw, untrusted custom-data objects into sanitized,
// typed payloads, or into an ordered list of human-readable errors. It never
// panics on malformed input: absence or a wrong type is an error string.
package validate

import (
	"fmt"

	"github.com/user/conversion-relay/internal/domain"
)

// Sanitize validates raw custom data for the given event kind. On success it
// returns the sanitized payload and a nil error list; on failure the payload
// is nil and the error list is non-empty.
func Sanitize(kind domain.EventName, raw map[string]any) (domain.Payload, []string) {
	switch kind {
	case domain.EventPageView:
		return sanitizePageView(raw)
	case domain.EventViewContent:
		return sanitizeViewContent(raw)
	case domain.EventAddToCart:
		return sanitizeAddToCart(raw)
	case domain.EventAddToWishlist:
		return sanitizeAddToWishlist(raw)
	case domain.EventInitiateCheckout:
		return sanitizeInitiateCheckout(raw)
	case domain.EventAddPaymentInfo:
		return sanitizeAddPaymentInfo(raw)
	case domain.EventPurchase:
		return sanitizePurchase(raw)
	case domain.EventLead:
		return sanitizeLead(raw)
	default:
		return nil, []string{fmt.Sprintf("unknown event kind %q", kind)}
	}
}

func sanitizePageView(raw map[string]any) (domain.Payload, []string) {
	r := newFieldReader(raw)
	d := domain.PageViewData{}
	d.PageTitle, _ = r.str("page_title")
	d.PageCategory, _ = r.str("page_category")
	d.Referrer, _ = r.str("referrer")
	if len(r.errors) > 0 {
		return nil, r.errors
	}
	return d, nil
}

func sanitizeViewContent(raw map[string]any) (domain.Payload, []string) {
	r := newFieldReader(raw)
	d := domain.ViewContentData{}

	d.Contents, _ = r.parseLineItems("contents")

	ids, ok := r.strSlice("content_ids")
	if !ok {
		ids = deriveContentIDs(d.Contents)
	}
	if len(ids) == 0 {
		r.errorf(`required field "content_ids" is missing or empty`)
	}
	d.ContentIDs = ids

	name, ok := r.str("content_name")
	if !ok {
		name = deriveContentName(d.Contents, ids)
	}
	if name == "" {
		r.errorf(`required field "content_name" is missing or empty`)
	}
	d.ContentName = name

	d.Value, _ = r.requireNonNegative("value")
	d.Currency, _ = r.currency()
	d.ContentCategory, _ = r.str("content_category")
	d.ContentBrand, _ = r.str("content_brand")
	d.Availability = r.enum("availability", domain.Availabilities)
	d.Condition = r.enum("condition", domain.Conditions)
	d.UserIntent = r.enum("user_intent", domain.UserIntents)

	if len(d.Contents) > 0 {
		r.checkTotals(d.Contents, d.Value, 0, false)
	}

	if len(r.errors) > 0 {
		return nil, r.errors
	}
	return d, nil
}

func sanitizeAddToCart(raw map[string]any) (domain.Payload, []string) {
	r := newFieldReader(raw)
	d := domain.AddToCartData{}

	d.Value, _ = r.requirePositive("value")
	d.Currency, _ = r.currency()

	contents, ok := r.parseLineItems("contents")
	if !ok && r.raw["contents"] == nil {
		r.errorf(`required field "contents" is missing`)
	}
	d.Contents = contents

	numItems, supplied := r.intField("num_items")
	r.checkTotals(contents, d.Value, numItems, supplied)
	if !supplied {
		numItems = deriveNumItems(contents)
	}
	d.NumItems = numItems

	d.ContentIDs = deriveContentIDs(contents)
	d.ContentName = deriveContentName(contents, d.ContentIDs)
	d.CartID, _ = r.str("cart_id")
	d.DiscountType = r.enum("discount_type", domain.DiscountTypes)
	if dv, ok := r.num("discount_value"); ok && dv >= 0 {
		d.DiscountValue = dv
	}

	if len(r.errors) > 0 {
		return nil, r.errors
	}
	return d, nil
}

func sanitizeAddToWishlist(raw map[string]any) (domain.Payload, []string) {
	r := newFieldReader(raw)
	d := domain.AddToWishlistData{}

	d.Value, _ = r.requireNonNegative("value")
	d.Currency, _ = r.currency()

	contents, ok := r.parseLineItems("contents")
	if !ok && r.raw["contents"] == nil {
		r.errorf(`required field "contents" is missing`)
	}
	d.Contents = contents

	numItems, supplied := r.intField("num_items")
	r.checkTotals(contents, d.Value, numItems, supplied)
	if !supplied {
		numItems = deriveNumItems(contents)
	}
	d.NumItems = numItems

	d.ContentIDs = deriveContentIDs(contents)
	d.ContentName = deriveContentName(contents, d.ContentIDs)
	d.WishlistType = r.enum("wishlist_type", domain.WishlistTypes)

	if len(r.errors) > 0 {
		return nil, r.errors
	}
	return d, nil
}

func sanitizeInitiateCheckout(raw map[string]any) (domain.Payload, []string) {
	r := newFieldReader(raw)
	d := domain.InitiateCheckoutData{}

	d.Value, _ = r.requirePositive("value")
	d.Currency, _ = r.currency()

	contents, ok := r.parseLineItems("contents")
	if !ok && r.raw["contents"] == nil {
		r.errorf(`required field "contents" is missing`)
	}
	d.Contents = contents

	numItems, supplied := r.intField("num_items")
	r.checkTotals(contents, d.Value, numItems, supplied)
	if !supplied {
		numItems = deriveNumItems(contents)
	}
	d.NumItems = numItems

	d.ContentIDs = deriveContentIDs(contents)
	d.ContentName = deriveContentName(contents, d.ContentIDs)
	d.DeliveryCategory = r.enum("delivery_category", domain.DeliveryCategories)
	d.CouponCode, _ = r.str("coupon_code")

	if len(r.errors) > 0 {
		return nil, r.errors
	}
	return d, nil
}

func sanitizeAddPaymentInfo(raw map[string]any) (domain.Payload, []string) {
	r := newFieldReader(raw)
	d := domain.AddPaymentInfoData{}

	d.Value, _ = r.requirePositive("value")
	d.Currency, _ = r.currency()

	if _, ok := r.requireStr("payment_method"); ok {
		d.PaymentMethod = r.enum("payment_method", domain.PaymentMethods)
	}

	// Contents are optional here; checked when supplied.
	if contents, ok := r.parseLineItems("contents"); ok {
		d.Contents = contents
		numItems, supplied := r.intField("num_items")
		r.checkTotals(contents, d.Value, numItems, supplied)
		if !supplied {
			numItems = deriveNumItems(contents)
		}
		d.NumItems = numItems
		d.ContentIDs = deriveContentIDs(contents)
	}

	if len(r.errors) > 0 {
		return nil, r.errors
	}
	return d, nil
}

func sanitizePurchase(raw map[string]any) (domain.Payload, []string) {
	r := newFieldReader(raw)
	d := domain.PurchaseData{}

	d.OrderID, _ = r.requireStr("order_id")
	d.Value, _ = r.requirePositive("value")
	d.Currency, _ = r.currency()

	contents, ok := r.parseLineItems("contents")
	if !ok && r.raw["contents"] == nil {
		r.errorf(`required field "contents" is missing`)
	}
	d.Contents = contents

	numItems, supplied := r.intField("num_items")
	r.checkTotals(contents, d.Value, numItems, supplied)
	if !supplied {
		numItems = deriveNumItems(contents)
	}
	d.NumItems = numItems

	ids, ok := r.strSlice("content_ids")
	if !ok {
		ids = deriveContentIDs(contents)
	}
	d.ContentIDs = ids

	name, ok := r.str("content_name")
	if !ok {
		name = deriveContentName(contents, ids)
	}
	d.ContentName = name

	d.PaymentMethod = r.enum("payment_method", domain.PaymentMethods)
	d.PaymentStatus = r.enum("payment_status", domain.PaymentStatuses)
	d.DeliveryCategory = r.enum("delivery_category", domain.DeliveryCategories)
	d.OrderSource = r.enum("order_source", domain.OrderSources)
	d.CustomerType = r.enum("customer_type", domain.CustomerTypes)
	d.DiscountType = r.enum("discount_type", domain.DiscountTypes)
	d.CouponCode, _ = r.str("coupon_code")
	if dv, ok := r.num("discount_value"); ok && dv >= 0 {
		d.DiscountValue = dv
	}
	if sc, ok := r.num("shipping_cost"); ok && sc >= 0 {
		d.ShippingCost = sc
	}
	if tax, ok := r.num("tax"); ok && tax >= 0 {
		d.Tax = tax
	}

	if len(r.errors) > 0 {
		return nil, r.errors
	}
	return d, nil
}

func sanitizeLead(raw map[string]any) (domain.Payload, []string) {
	r := newFieldReader(raw)
	d := domain.LeadData{}

	d.LeadSource, _ = r.str("lead_source")
	d.ContentName, _ = r.str("content_name")
	if v, ok := r.num("value"); ok {
		if v < 0 {
			r.errorf(`field "value" must not be negative, got %v`, v)
		} else {
			d.Value = v
			d.Currency, _ = r.currency()
		}
	}
	d.CustomerType = r.enum("customer_type", domain.CustomerTypes)
	d.UserIntent = r.enum("user_intent", domain.UserIntents)

	if len(r.errors) > 0 {
		return nil, r.errors
	}
	return d, nil
}

func deriveContentIDs(items []domain.LineItem) []string {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// deriveContentName back-fills a missing name: single-product carts use the
// product title (or a generic per-id label), multi-product carts a summary.
func deriveContentName(items []domain.LineItem, ids []string) string {
	switch {
	case len(items) == 1:
		if items[0].Title != "" {
			return items[0].Title
		}
		return "Product " + items[0].ID
	case len(items) > 1:
		return fmt.Sprintf("Order with %d products", len(items))
	case len(ids) == 1:
		return "Product " + ids[0]
	case len(ids) > 1:
		return fmt.Sprintf("Order with %d products", len(ids))
	default:
		return ""
	}
}

func deriveNumItems(items []domain.LineItem) int {
	var n int
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
