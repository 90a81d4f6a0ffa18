package domain

// IdentityBlock holds the reconciled user-identifying signals attached to an
// outbound event. Multi-valued fields carry one normalized (and eventually
// hashed) string per observed value; the hasher preserves order and length.
//
// FBC, FBP, ClientIPAddress, ClientUserAgent and ExternalID are matching
// keys, not PII: they are transmitted verbatim and must never be hashed.
type IdentityBlock struct {
	Email      []string `json:"em,omitempty"`
	Phone      []string `json:"ph,omitempty"`
	FirstName  []string `json:"fn,omitempty"`
	LastName   []string `json:"ln,omitempty"`
	Gender     []string `json:"ge,omitempty"`
	BirthDate  []string `json:"db,omitempty"`
	City       []string `json:"ct,omitempty"`
	State      []string `json:"st,omitempty"`
	PostalCode []string `json:"zp,omitempty"`
	Country    []string `json:"country,omitempty"`

	ExternalID []string `json:"external_id,omitempty"`

	FBC string `json:"fbc,omitempty"`
	FBP string `json:"fbp,omitempty"`

	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
}

// IsEmpty reports whether no identity signal at all was resolved.
func (b IdentityBlock) IsEmpty() bool {
	return len(b.Email) == 0 && len(b.Phone) == 0 && len(b.FirstName) == 0 &&
		len(b.LastName) == 0 && len(b.Gender) == 0 && len(b.BirthDate) == 0 &&
		len(b.City) == 0 && len(b.State) == 0 && len(b.PostalCode) == 0 &&
		len(b.Country) == 0 && len(b.ExternalID) == 0 &&
		b.FBC == "" && b.FBP == "" &&
		b.ClientIPAddress == "" && b.ClientUserAgent == ""
}
