package webhook

import "testing"

const kiwifyPaid = `{
  "order_id": "KW987",
  "order_status": "paid",
  "payment_method": "credit_card",
  "approved_date": "2023-11-14 22:13",
  "checkout_link": "https://pay.kiwi.example/c/9?fbc=fb.1.1700000000.abc&src=bio",
  "Commissions": {"charge_amount": 19700, "currency": "BRL"},
  "Product": {"product_id": "prod-9", "product_name": "Mentoria"},
  "Customer": {
    "full_name": "Joao Pereira Santos",
    "email": "joao@example.com",
    "mobile": "+5511912345678",
    "ip": "198.51.100.30",
    "city": "Recife",
    "state": "PE",
    "zipcode": "50000-000",
    "country": "BR"
  },
  "TrackingParameters": {"utm_campaign": "launch", "src": "bio"}
}`

func TestKiwifyAdapter_Parse(t *testing.T) {
	adapter := NewKiwifyAdapter()

	t.Run("Paid Order", func(t *testing.T) {
		ev, err := adapter.Parse([]byte(kiwifyPaid))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev == nil {
			t.Fatal("expected a purchase event")
		}
		if ev.Value != 197.0 {
			t.Errorf("charge amount not converted from cents: %v", ev.Value)
		}
		if ev.WebhookParams["fbc"] != "fb.1.1700000000.abc" {
			t.Errorf("checkout link fbc not extracted: %v", ev.WebhookParams)
		}
		if ev.TrackingParams["utm_campaign"] != "launch" || ev.TrackingParams["src"] != "bio" {
			t.Errorf("tracking parameters lost: %v", ev.TrackingParams)
		}
		if ev.EventTime == 0 {
			t.Error("approved_date not parsed into event time")
		}
		if ev.User.FirstName[0] != "Joao" || ev.User.LastName[0] != "Pereira Santos" {
			t.Errorf("name not split on first whitespace run: %v %v", ev.User.FirstName, ev.User.LastName)
		}
		if ev.Item.ID != "prod-9" || ev.Item.ItemPrice != 197.0 {
			t.Errorf("line item wrong: %+v", ev.Item)
		}
	})

	t.Run("Identity Keys In Tracking Parameters Stay Identity", func(t *testing.T) {
		ev, err := adapter.Parse([]byte(`{
		  "order_id": "KW988",
		  "order_status": "paid",
		  "checkout_link": "https://pay.kiwi.example/c/9?src=bio",
		  "Commissions": {"charge_amount": 1000, "currency": "BRL"},
		  "Product": {"product_id": "prod-9", "product_name": "Mentoria"},
		  "TrackingParameters": {"xid": "cust-7", "fbp": "fb.1.1.2", "utm_campaign": "launch"}
		}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.WebhookParams["xid"] != "cust-7" || ev.WebhookParams["fbp"] != "fb.1.1.2" {
			t.Errorf("identity keys not promoted from TrackingParameters: %v", ev.WebhookParams)
		}
		if _, leak := ev.TrackingParams["xid"]; leak {
			t.Error("xid leaked into tracking params")
		}
		if ev.TrackingParams["utm_campaign"] != "launch" {
			t.Errorf("plain tracking params lost: %v", ev.TrackingParams)
		}
	})

	t.Run("Refunded Order Is Ignored", func(t *testing.T) {
		ev, err := adapter.Parse([]byte(`{"order_id":"KW1","order_status":"refunded"}`))
		if err != nil || ev != nil {
			t.Errorf("expected neutral outcome, got ev=%v err=%v", ev, err)
		}
	})
}
