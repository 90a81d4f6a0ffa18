package domain

// LineItem is one product entry within a cart, order or wishlist.
type LineItem struct {
	ID             string  `json:"id"`
	Quantity       int     `json:"quantity"`
	ItemPrice      float64 `json:"item_price"`
	Title          string  `json:"title,omitempty"`
	Category       string  `json:"category,omitempty"`
	Brand          string  `json:"brand,omitempty"`
	Variant        string  `json:"variant,omitempty"`
	SKU            string  `json:"sku,omitempty"`
	OriginalPrice  float64 `json:"original_price,omitempty"`
	DiscountAmount float64 `json:"discount_amount,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	Availability   string  `json:"availability,omitempty"`
	Condition      string  `json:"condition,omitempty"`
}

// Subtotal returns the line's contribution to the order total.
func (li LineItem) Subtotal() float64 {
	return li.ItemPrice * float64(li.Quantity)
}

// Payload is the sanitized, event-kind-specific custom data produced by the
// validator. Implementations are plain structs; CustomData renders the
// outbound custom_data block.
type Payload interface {
	EventName() EventName
	CustomData() map[string]any
}

// PageViewData carries page context for a PageView event.
type PageViewData struct {
	PageTitle    string
	PageCategory string
	Referrer     string
}

func (PageViewData) EventName() EventName { return EventPageView }

func (d PageViewData) CustomData() map[string]any {
	m := map[string]any{}
	putStr(m, "page_title", d.PageTitle)
	putStr(m, "page_category", d.PageCategory)
	putStr(m, "referrer", d.Referrer)
	return m
}

// ViewContentData describes a single product (or content) detail view.
type ViewContentData struct {
	ContentIDs      []string
	ContentName     string
	ContentCategory string
	ContentBrand    string
	Value           float64
	Currency        string
	Contents        []LineItem
	Availability    string
	Condition       string
	UserIntent      string
}

func (ViewContentData) EventName() EventName { return EventViewContent }

func (d ViewContentData) CustomData() map[string]any {
	m := map[string]any{
		"content_ids":  d.ContentIDs,
		"content_name": d.ContentName,
		"content_type": "product",
		"value":        d.Value,
		"currency":     d.Currency,
	}
	putStr(m, "content_category", d.ContentCategory)
	putStr(m, "content_brand", d.ContentBrand)
	putStr(m, "availability", d.Availability)
	putStr(m, "condition", d.Condition)
	putStr(m, "user_intent", d.UserIntent)
	if len(d.Contents) > 0 {
		m["contents"] = d.Contents
	}
	return m
}

// AddToCartData describes items added to the cart in one action.
type AddToCartData struct {
	Value         float64
	Currency      string
	Contents      []LineItem
	ContentIDs    []string
	ContentName   string
	NumItems      int
	CartID        string
	DiscountType  string
	DiscountValue float64
}

func (AddToCartData) EventName() EventName { return EventAddToCart }

func (d AddToCartData) CustomData() map[string]any {
	m := map[string]any{
		"content_ids":  d.ContentIDs,
		"content_name": d.ContentName,
		"content_type": "product",
		"value":        d.Value,
		"currency":     d.Currency,
		"contents":     d.Contents,
		"num_items":    d.NumItems,
	}
	putStr(m, "cart_id", d.CartID)
	putStr(m, "discount_type", d.DiscountType)
	if d.DiscountValue > 0 {
		m["discount_value"] = d.DiscountValue
	}
	return m
}

// AddToWishlistData describes items saved to a wishlist.
type AddToWishlistData struct {
	Value        float64
	Currency     string
	Contents     []LineItem
	ContentIDs   []string
	ContentName  string
	NumItems     int
	WishlistType string
}

func (AddToWishlistData) EventName() EventName { return EventAddToWishlist }

func (d AddToWishlistData) CustomData() map[string]any {
	m := map[string]any{
		"content_ids":  d.ContentIDs,
		"content_name": d.ContentName,
		"content_type": "product",
		"value":        d.Value,
		"currency":     d.Currency,
		"contents":     d.Contents,
		"num_items":    d.NumItems,
	}
	putStr(m, "wishlist_type", d.WishlistType)
	return m
}

// InitiateCheckoutData describes the start of a checkout flow.
type InitiateCheckoutData struct {
	Value            float64
	Currency         string
	Contents         []LineItem
	ContentIDs       []string
	ContentName      string
	NumItems         int
	DeliveryCategory string
	CouponCode       string
}

func (InitiateCheckoutData) EventName() EventName { return EventInitiateCheckout }

func (d InitiateCheckoutData) CustomData() map[string]any {
	m := map[string]any{
		"content_ids":  d.ContentIDs,
		"content_name": d.ContentName,
		"content_type": "product",
		"value":        d.Value,
		"currency":     d.Currency,
		"contents":     d.Contents,
		"num_items":    d.NumItems,
	}
	putStr(m, "delivery_category", d.DeliveryCategory)
	putStr(m, "coupon_code", d.CouponCode)
	return m
}

// AddPaymentInfoData describes a completed payment-details step.
type AddPaymentInfoData struct {
	Value         float64
	Currency      string
	PaymentMethod string
	Contents      []LineItem
	ContentIDs    []string
	NumItems      int
}

func (AddPaymentInfoData) EventName() EventName { return EventAddPaymentInfo }

func (d AddPaymentInfoData) CustomData() map[string]any {
	m := map[string]any{
		"value":    d.Value,
		"currency": d.Currency,
	}
	putStr(m, "payment_method", d.PaymentMethod)
	if len(d.ContentIDs) > 0 {
		m["content_ids"] = d.ContentIDs
	}
	if len(d.Contents) > 0 {
		m["contents"] = d.Contents
		m["num_items"] = d.NumItems
	}
	return m
}

// PurchaseData describes a completed order.
type PurchaseData struct {
	OrderID          string
	Value            float64
	Currency         string
	Contents         []LineItem
	ContentIDs       []string
	ContentName      string
	NumItems         int
	PaymentMethod    string
	PaymentStatus    string
	DeliveryCategory string
	OrderSource      string
	CustomerType     string
	CouponCode       string
	DiscountType     string
	DiscountValue    float64
	ShippingCost     float64
	Tax              float64
}

func (PurchaseData) EventName() EventName { return EventPurchase }

func (d PurchaseData) CustomData() map[string]any {
	m := map[string]any{
		"order_id":     d.OrderID,
		"content_ids":  d.ContentIDs,
		"content_name": d.ContentName,
		"content_type": "product",
		"value":        d.Value,
		"currency":     d.Currency,
		"contents":     d.Contents,
		"num_items":    d.NumItems,
	}
	putStr(m, "payment_method", d.PaymentMethod)
	putStr(m, "payment_status", d.PaymentStatus)
	putStr(m, "delivery_category", d.DeliveryCategory)
	putStr(m, "order_source", d.OrderSource)
	putStr(m, "customer_type", d.CustomerType)
	putStr(m, "coupon_code", d.CouponCode)
	putStr(m, "discount_type", d.DiscountType)
	if d.DiscountValue > 0 {
		m["discount_value"] = d.DiscountValue
	}
	if d.ShippingCost > 0 {
		m["shipping_cost"] = d.ShippingCost
	}
	if d.Tax > 0 {
		m["tax"] = d.Tax
	}
	return m
}

// LeadData describes a captured lead (form submission, signup intent).
type LeadData struct {
	LeadSource   string
	ContentName  string
	Value        float64
	Currency     string
	CustomerType string
	UserIntent   string
}

func (LeadData) EventName() EventName { return EventLead }

func (d LeadData) CustomData() map[string]any {
	m := map[string]any{}
	putStr(m, "lead_source", d.LeadSource)
	putStr(m, "content_name", d.ContentName)
	if d.Value > 0 {
		m["value"] = d.Value
		putStr(m, "currency", d.Currency)
	}
	putStr(m, "customer_type", d.CustomerType)
	putStr(m, "user_intent", d.UserIntent)
	return m
}

func putStr(m map[string]any, key, val string) {
	if val != "" {
		m[key] = val
	}
}
