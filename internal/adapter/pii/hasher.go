package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/user/conversion-relay/internal/domain"
)

// canonicalize maps a raw identity value to the normalized form that must be
// hashed, so that semantically equal inputs produce identical digests.
type canonicalize func(string) string

var (
	lowerTrim = func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	}
	digitsOnly = func(v string) string {
		return keepFunc(v, unicode.IsDigit)
	}
	genderInitial = func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		r, _ := utf8.DecodeRuneInString(v)
		return strings.ToLower(string(r))
	}
	cityRule = func(v string) string {
		return keepFunc(strings.ToLower(strings.TrimSpace(v)), func(r rune) bool {
			return !unicode.IsSpace(r)
		})
	}
	stateRule = func(v string) string {
		return keepFunc(strings.ToLower(strings.TrimSpace(v)), func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		})
	}
	postalRule = func(v string) string {
		// Case is preserved, postal codes may be alphanumeric.
		return keepFunc(strings.TrimSpace(v), func(r rune) bool {
			return !unicode.IsSpace(r)
		})
	}
)

func keepFunc(v string, keep func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Hash returns the lowercase hex SHA-256 digest of the canonicalized value,
// or "" for values that canonicalize to nothing.
func Hash(value string, rule canonicalize) string {
	c := rule(value)
	if c == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(c))
	return hex.EncodeToString(sum[:])
}

func hashAll(values []string, rule canonicalize) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Hash(v, rule)
	}
	return out
}

// HashIdentity returns a copy of the identity block with every sensitive
// multi-valued field replaced by its hashed form, order and length preserved.
// ExternalID, FBC, FBP, client IP and user agent pass through untouched:
// they are matching keys the upstream consumes in the clear. Hashing is the
// last step before transmission and is applied exactly once.
func HashIdentity(block domain.IdentityBlock) domain.IdentityBlock {
	return domain.IdentityBlock{
		Email:      hashAll(block.Email, lowerTrim),
		Phone:      hashAll(block.Phone, digitsOnly),
		FirstName:  hashAll(block.FirstName, lowerTrim),
		LastName:   hashAll(block.LastName, lowerTrim),
		Gender:     hashAll(block.Gender, genderInitial),
		BirthDate:  hashAll(block.BirthDate, digitsOnly),
		City:       hashAll(block.City, cityRule),
		State:      hashAll(block.State, stateRule),
		PostalCode: hashAll(block.PostalCode, postalRule),
		Country:    hashAll(block.Country, lowerTrim),

		ExternalID: block.ExternalID,
		FBC:        block.FBC,
		FBP:        block.FBP,

		ClientIPAddress: block.ClientIPAddress,
		ClientUserAgent: block.ClientUserAgent,
	}
}
