package webhook

import "testing"

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		full, first, last string
	}{
		{"Maria da Silva", "Maria", "da Silva"},
		{"Cher", "Cher", ""},
		{"  Ana   Souza  ", "Ana", "Souza"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := splitFullName(tt.full)
		if first != tt.first || last != tt.last {
			t.Errorf("splitFullName(%q) = %q, %q; want %q, %q", tt.full, first, last, tt.first, tt.last)
		}
	}
}

func TestParseCheckoutURL(t *testing.T) {
	idp, tracking := parseCheckoutURL("https://pay.example.com/c/1?xid=cust-7&fbp=fb.1.1.2&fbc=fb.1.1.abc&utm_source=ig&sck=promo")

	if idp["xid"] != "cust-7" || idp["fbp"] != "fb.1.1.2" || idp["fbc"] != "fb.1.1.abc" {
		t.Errorf("identity params not extracted: %v", idp)
	}
	if _, leaked := tracking["fbc"]; leaked {
		t.Error("identity key leaked into tracking params")
	}
	if tracking["utm_source"] != "ig" || tracking["sck"] != "promo" {
		t.Errorf("tracking params lost: %v", tracking)
	}
}

func TestParseCheckoutURL_Malformed(t *testing.T) {
	idp, tracking := parseCheckoutURL("::not a url::")
	if len(idp) != 0 || len(tracking) != 0 {
		t.Error("malformed url must yield empty maps, not an error")
	}
}

func TestPruneEmpty(t *testing.T) {
	got := pruneEmpty(map[string]any{
		"keep":  "x",
		"nil":   nil,
		"blank": "  ",
		"zero":  0,
	})
	if _, ok := got["nil"]; ok {
		t.Error("nil value not pruned")
	}
	if _, ok := got["blank"]; ok {
		t.Error("blank string not pruned")
	}
	if got["keep"] != "x" || got["zero"] != 0 {
		t.Errorf("legit values dropped: %v", got)
	}
}
