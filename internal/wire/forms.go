// Package wire defines the backend record shapes exchanged with the
// practice-analytics gateway, and the strict parse step that converts raw
// gateway JSON into them.
package wire

// MonthEntryForm is one calendar month of referral data as the backend
// stores it.
type MonthEntryForm struct {
	Month           string            `json:"month"`
	SelfReferrals   int               `json:"self_referrals"`
	DoctorReferrals int               `json:"doctor_referrals"`
	TotalReferrals  int               `json:"total_referrals"`
	ProductionTotal float64           `json:"production_total"`
	Sources         []SourceEntryForm `json:"sources"`
}

// SourceEntryForm is one referral source within a backend month record.
// InferredReferralType is optional; consumers fall back to "self" when it is
// absent or unrecognized.
type SourceEntryForm struct {
	Name                 string  `json:"name"`
	Referrals            float64 `json:"referrals"`
	Production           float64 `json:"production"`
	InferredReferralType string  `json:"inferred_referral_type,omitempty"`
}
