package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/user/conversion-relay/internal/domain"
)

// parseLineItems validates each element of a contents array independently.
// Every element must carry a non-empty id, a positive integer quantity and a
// non-negative item_price; descriptive fields are optional.
func (r *fieldReader) parseLineItems(key string) ([]domain.LineItem, bool) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		r.errorf("field %q must be an array", key)
		return nil, false
	}
	if len(arr) == 0 {
		r.errorf("field %q must be a non-empty array", key)
		return nil, false
	}

	items := make([]domain.LineItem, 0, len(arr))
	valid := true
	for i, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			r.errorf("field %q element %d must be an object", key, i)
			valid = false
			continue
		}
		item, errs := parseLineItem(obj)
		for _, e := range errs {
			r.errorf("field %q element %d: %s", key, i, e)
		}
		if len(errs) > 0 {
			valid = false
			continue
		}
		items = append(items, item)
	}
	if !valid {
		return nil, false
	}
	return items, true
}

func parseLineItem(obj map[string]any) (domain.LineItem, []string) {
	var errs []string
	var item domain.LineItem

	if id, ok := stringify(obj["id"]); ok && strings.TrimSpace(id) != "" {
		item.ID = strings.TrimSpace(id)
	} else {
		errs = append(errs, `"id" must be a non-empty string`)
	}

	if q, ok := numberify(obj["quantity"]); ok && q > 0 && q == math.Trunc(q) {
		item.Quantity = int(q)
	} else {
		errs = append(errs, `"quantity" must be a positive integer`)
	}

	if p, ok := numberify(obj["item_price"]); ok && p >= 0 {
		item.ItemPrice = p
	} else {
		errs = append(errs, `"item_price" must be a non-negative number`)
	}

	item.Title = trimmedString(obj, "title")
	item.Category = trimmedString(obj, "category")
	item.Brand = trimmedString(obj, "brand")
	item.Variant = trimmedString(obj, "variant")
	item.SKU = trimmedString(obj, "sku")

	if p, ok := numberify(obj["original_price"]); ok && p >= 0 {
		item.OriginalPrice = p
	}
	if d, ok := numberify(obj["discount_amount"]); ok && d >= 0 {
		item.DiscountAmount = d
	}
	if rt, ok := numberify(obj["rating"]); ok && rt >= 0 {
		item.Rating = rt
	}

	if av := trimmedString(obj, "availability"); av != "" {
		if !domain.Availabilities.Contains(av) {
			errs = append(errs, fmt.Sprintf(`"availability" has unrecognized value %q`, av))
		} else {
			item.Availability = strings.ToLower(av)
		}
	}
	if cond := trimmedString(obj, "condition"); cond != "" {
		if !domain.Conditions.Contains(cond) {
			errs = append(errs, fmt.Sprintf(`"condition" has unrecognized value %q`, cond))
		} else {
			item.Condition = strings.ToLower(cond)
		}
	}

	return item, errs
}

func trimmedString(obj map[string]any, key string) string {
	if s, ok := stringify(obj[key]); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// checkTotals enforces the cross-field consistency rules. The monetary
// tolerance is 1% of the total calculated from the line items, floored at an
// absolute 0.01, so a garbage supplied value cannot widen its own allowance.
// The item count is exact: counts are not currency.
func (r *fieldReader) checkTotals(items []domain.LineItem, value float64, numItems int, numItemsSupplied bool) {
	if len(items) == 0 {
		return
	}

	var calcValue float64
	var calcCount int
	for _, it := range items {
		calcValue += it.Subtotal()
		calcCount += it.Quantity
	}

	tolerance := math.Max(0.01, calcValue*0.01)
	if math.Abs(calcValue-value) > tolerance {
		r.errorf(`field "value" (%v) doesn't match calculated total %v from contents`,
			value, round2(calcValue))
	}

	if numItemsSupplied && numItems != calcCount {
		r.errorf(`field "num_items" (%d) doesn't match calculated item count %d from contents`,
			numItems, calcCount)
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
