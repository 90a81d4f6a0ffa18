package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/conversion-relay/internal/domain"
)

// Kiwify-style payloads are flat and discriminate on order_status; only
// paid orders are forwarded.
const kiwifyStatusPaid = "paid"

type KiwifyAdapter struct{}

func NewKiwifyAdapter() *KiwifyAdapter { return &KiwifyAdapter{} }

func (*KiwifyAdapter) Platform() string { return "kiwify" }

type kiwifyPayload struct {
	OrderID       string `json:"order_id"`
	OrderStatus   string `json:"order_status"`
	PaymentMethod string `json:"payment_method"`
	ApprovedDate  string `json:"approved_date"` // "2006-01-02 15:04" UTC
	CheckoutLink  string `json:"checkout_link"`
	Commissions   struct {
		ChargeAmount json.Number `json:"charge_amount"` // cents
		CurrencyCode string      `json:"currency"`
	} `json:"Commissions"`
	Product struct {
		ProductID   string `json:"product_id"`
		ProductName string `json:"product_name"`
	} `json:"Product"`
	Customer struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Mobile   string `json:"mobile"`
		IP       string `json:"ip"`
		City     string `json:"city"`
		State    string `json:"state"`
		Zipcode  string `json:"zipcode"`
		Country  string `json:"country"`
	} `json:"Customer"`
	TrackingParameters map[string]string `json:"TrackingParameters"`
	FBC                string            `json:"fbc"`
	FBP                string            `json:"fbp"`
}

func (a *KiwifyAdapter) Parse(body []byte) (*PurchaseEvent, error) {
	var p kiwifyPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("parse kiwify payload: %w", err)
	}
	if p.OrderStatus != kiwifyStatusPaid {
		return nil, nil
	}

	identityParams, tracking := parseCheckoutURL(p.CheckoutLink)
	// The platform mirrors the checkout query into TrackingParameters, so
	// identity keys can show up there even when the checkout link lacks
	// them. They must never ride along as generic tracking.
	for k, v := range p.TrackingParameters {
		if v == "" {
			continue
		}
		switch k {
		case "xid", "fbp", "fbc":
			if _, seen := identityParams[k]; !seen {
				identityParams[k] = v
			}
		default:
			if _, seen := tracking[k]; !seen {
				tracking[k] = v
			}
		}
	}
	if _, ok := identityParams["fbc"]; !ok && p.FBC != "" {
		identityParams["fbc"] = p.FBC
	}
	if _, ok := identityParams["fbp"]; !ok && p.FBP != "" {
		identityParams["fbp"] = p.FBP
	}

	value := centsToAmount(p.Commissions.ChargeAmount)
	currency := p.Commissions.CurrencyCode
	if currency == "" {
		currency = "BRL"
	}

	ev := &PurchaseEvent{
		Platform: a.Platform(),
		OrderID:  p.OrderID,
		Value:    value,
		Currency: currency,
		Item: domain.LineItem{
			ID:        productID(p.Product.ProductID, p.OrderID),
			Quantity:  1,
			ItemPrice: value,
			Title:     p.Product.ProductName,
		},
		SourceURL:      p.CheckoutLink,
		WebhookParams:  identityParams,
		TrackingParams: tracking,
		CustomerIP:     p.Customer.IP,
		Extra: pruneEmpty(map[string]any{
			"payment_method": normalizeKiwifyPayment(p.PaymentMethod),
			"product_id":     p.Product.ProductID,
		}),
	}

	if ts, err := time.Parse("2006-01-02 15:04", p.ApprovedDate); err == nil {
		ev.EventTime = ts.Unix()
	}

	first, lastName := splitFullName(p.Customer.FullName)
	ev.User.FirstName = single(first)
	ev.User.LastName = single(lastName)
	ev.User.Email = single(p.Customer.Email)
	ev.User.Phone = single(p.Customer.Mobile)
	ev.User.City = single(p.Customer.City)
	ev.User.State = single(p.Customer.State)
	ev.User.PostalCode = single(p.Customer.Zipcode)
	ev.User.Country = single(p.Customer.Country)

	return ev, nil
}

func centsToAmount(n json.Number) float64 {
	cents, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return 0
		}
		return f / 100
	}
	return float64(cents) / 100
}

func normalizeKiwifyPayment(t string) string {
	switch t {
	case "credit_card", "pix", "boleto", "paypal":
		return t
	default:
		return ""
	}
}
