package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/user/conversion-relay/internal/domain"
)

// Hotmart-style payloads wrap everything under data and discriminate on the
// top-level event field. Only approved purchases are forwarded.
const hotmartPurchaseApproved = "PURCHASE_APPROVED"

type HotmartAdapter struct{}

func NewHotmartAdapter() *HotmartAdapter { return &HotmartAdapter{} }

func (*HotmartAdapter) Platform() string { return "hotmart" }

type hotmartPayload struct {
	Event string `json:"event"`
	Data  struct {
		Purchase struct {
			Transaction string `json:"transaction"`
			OrderDate   int64  `json:"order_date"` // milliseconds
			Price       struct {
				Value         float64 `json:"value"`
				CurrencyValue string  `json:"currency_value"`
			} `json:"price"`
			Payment struct {
				Type string `json:"type"`
			} `json:"payment"`
			CheckoutURL string `json:"checkout_url"`
			BuyerIP     string `json:"buyer_ip"`
			FBC         string `json:"fbc"`
			FBP         string `json:"fbp"`
		} `json:"purchase"`
		Buyer struct {
			Name          string `json:"name"`
			Email         string `json:"email"`
			CheckoutPhone string `json:"checkout_phone"`
			Address       struct {
				City       string `json:"city"`
				State      string `json:"state"`
				ZipCode    string `json:"zip_code"`
				CountryISO string `json:"country_iso"`
			} `json:"address"`
		} `json:"buyer"`
		Product struct {
			ID   json.Number `json:"id"`
			Name string      `json:"name"`
		} `json:"product"`
	} `json:"data"`
}

func (a *HotmartAdapter) Parse(body []byte) (*PurchaseEvent, error) {
	var p hotmartPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("parse hotmart payload: %w", err)
	}
	if p.Event != hotmartPurchaseApproved {
		return nil, nil
	}

	purchase := p.Data.Purchase
	buyer := p.Data.Buyer

	identityParams, tracking := parseCheckoutURL(purchase.CheckoutURL)
	// Top-level browser/click ids are the fallback when the URL lacks them.
	if _, ok := identityParams["fbc"]; !ok && purchase.FBC != "" {
		identityParams["fbc"] = purchase.FBC
	}
	if _, ok := identityParams["fbp"]; !ok && purchase.FBP != "" {
		identityParams["fbp"] = purchase.FBP
	}

	ev := &PurchaseEvent{
		Platform: a.Platform(),
		OrderID:  purchase.Transaction,
		Value:    purchase.Price.Value,
		Currency: purchase.Price.CurrencyValue,
		Item: domain.LineItem{
			ID:        productID(p.Data.Product.ID.String(), purchase.Transaction),
			Quantity:  1,
			ItemPrice: purchase.Price.Value,
			Title:     p.Data.Product.Name,
		},
		SourceURL:      purchase.CheckoutURL,
		WebhookParams:  identityParams,
		TrackingParams: tracking,
		CustomerIP:     purchase.BuyerIP,
		Extra: pruneEmpty(map[string]any{
			"payment_method": normalizePaymentType(purchase.Payment.Type),
			"product_id":     p.Data.Product.ID.String(),
		}),
	}

	if purchase.OrderDate > 0 {
		ev.EventTime = purchase.OrderDate / 1000
	}

	first, lastName := splitFullName(buyer.Name)
	ev.User.FirstName = single(first)
	ev.User.LastName = single(lastName)
	ev.User.Email = single(buyer.Email)
	ev.User.Phone = single(buyer.CheckoutPhone)
	ev.User.City = single(buyer.Address.City)
	ev.User.State = single(buyer.Address.State)
	ev.User.PostalCode = single(buyer.Address.ZipCode)
	ev.User.Country = single(buyer.Address.CountryISO)

	return ev, nil
}

// productID falls back to the transaction id for payloads without a product
// block; a line item must never carry an empty id.
func productID(id, fallback string) string {
	if id != "" {
		return id
	}
	return fallback
}

// normalizePaymentType maps the platform's payment labels onto the canonical
// enum; unknown labels are dropped rather than invented.
func normalizePaymentType(t string) string {
	switch t {
	case "CREDIT_CARD":
		return "credit_card"
	case "PIX":
		return "pix"
	case "BILLET":
		return "boleto"
	case "PAYPAL":
		return "paypal"
	case "GOOGLE_PAY":
		return "google_pay"
	case "WALLET":
		return "wallet"
	default:
		return ""
	}
}
