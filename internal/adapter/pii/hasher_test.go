package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/user/conversion-relay/internal/domain"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestHashIdentity_Canonicalization(t *testing.T) {
	tests := []struct {
		name  string
		block domain.IdentityBlock
		get   func(domain.IdentityBlock) []string
		want  []string
	}{
		{
			name:  "email trimmed and lowercased",
			block: domain.IdentityBlock{Email: []string{" Foo@Bar.com "}},
			get:   func(b domain.IdentityBlock) []string { return b.Email },
			want:  []string{sha("foo@bar.com")},
		},
		{
			name:  "phone keeps digits only",
			block: domain.IdentityBlock{Phone: []string{"+55 (11) 98765-4321"}},
			get:   func(b domain.IdentityBlock) []string { return b.Phone },
			want:  []string{sha("5511987654321")},
		},
		{
			name:  "gender first character lowercased",
			block: domain.IdentityBlock{Gender: []string{"Female"}},
			get:   func(b domain.IdentityBlock) []string { return b.Gender },
			want:  []string{sha("f")},
		},
		{
			name:  "gender initial handles multibyte first rune",
			block: domain.IdentityBlock{Gender: []string{"Ženská"}},
			get:   func(b domain.IdentityBlock) []string { return b.Gender },
			want:  []string{sha("ž")},
		},
		{
			name:  "birth date keeps digits only",
			block: domain.IdentityBlock{BirthDate: []string{"1990-04-17"}},
			get:   func(b domain.IdentityBlock) []string { return b.BirthDate },
			want:  []string{sha("19900417")},
		},
		{
			name:  "city drops internal whitespace",
			block: domain.IdentityBlock{City: []string{" Sao  Paulo "}},
			get:   func(b domain.IdentityBlock) []string { return b.City },
			want:  []string{sha("saopaulo")},
		},
		{
			name:  "state strips non-alphanumerics",
			block: domain.IdentityBlock{State: []string{"S.P."}},
			get:   func(b domain.IdentityBlock) []string { return b.State },
			want:  []string{sha("sp")},
		},
		{
			name:  "postal code preserves case",
			block: domain.IdentityBlock{PostalCode: []string{" SW1A 1AA "}},
			get:   func(b domain.IdentityBlock) []string { return b.PostalCode },
			want:  []string{sha("SW1A1AA")},
		},
		{
			name:  "country trimmed and lowercased",
			block: domain.IdentityBlock{Country: []string{" BR "}},
			get:   func(b domain.IdentityBlock) []string { return b.Country },
			want:  []string{sha("br")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.get(HashIdentity(tt.block))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d values, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("value %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHashIdentity_Deterministic(t *testing.T) {
	a := HashIdentity(domain.IdentityBlock{Email: []string{" Foo@Bar.com "}})
	b := HashIdentity(domain.IdentityBlock{Email: []string{"foo@bar.com"}})
	if a.Email[0] != b.Email[0] {
		t.Errorf("canonically equal emails hashed differently: %s vs %s", a.Email[0], b.Email[0])
	}
}

func TestHashIdentity_PassthroughFields(t *testing.T) {
	block := domain.IdentityBlock{
		ExternalID:      []string{"cust-42"},
		FBC:             "fb.1.1700000000.AbCdEf",
		FBP:             "fb.1.1700000000.1234567890",
		ClientIPAddress: "203.0.113.9",
		ClientUserAgent: "Mozilla/5.0",
	}

	got := HashIdentity(block)

	if got.ExternalID[0] != "cust-42" {
		t.Errorf("external_id must not be hashed, got %s", got.ExternalID[0])
	}
	if got.FBC != block.FBC || got.FBP != block.FBP {
		t.Error("fbc/fbp must pass through unchanged")
	}
	if got.ClientIPAddress != block.ClientIPAddress || got.ClientUserAgent != block.ClientUserAgent {
		t.Error("network context must pass through unchanged")
	}
}

func TestHashIdentity_PreservesOrderAndLength(t *testing.T) {
	block := domain.IdentityBlock{Email: []string{"a@x.com", "b@x.com", "c@x.com"}}
	got := HashIdentity(block)

	if len(got.Email) != 3 {
		t.Fatalf("expected 3 hashes, got %d", len(got.Email))
	}
	for i, raw := range block.Email {
		if got.Email[i] != sha(raw) {
			t.Errorf("hash %d out of order", i)
		}
	}
}

func TestHashIdentity_AbsentFieldsStayAbsent(t *testing.T) {
	got := HashIdentity(domain.IdentityBlock{})
	if !got.IsEmpty() {
		t.Error("hashing an empty block must not invent values")
	}
}
