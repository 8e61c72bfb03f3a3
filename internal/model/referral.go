// Package model defines the core domain models used throughout the application.
package model

import (
	"strconv"

	"github.com/google/uuid"
)

// ReferralType classifies how a patient found the practice.
type ReferralType string

const (
	// ReferralSelf marks self-generated or marketing-driven referrals.
	ReferralSelf ReferralType = "self"
	// ReferralDoctor marks referrals sent by another practitioner.
	ReferralDoctor ReferralType = "doctor"
)

// Toggle flips between the two referral types. There is no third state.
func (t ReferralType) Toggle() ReferralType {
	if t == ReferralDoctor {
		return ReferralSelf
	}
	return ReferralDoctor
}

// Valid reports whether the value is one of the two known types.
func (t ReferralType) Valid() bool {
	return t == ReferralSelf || t == ReferralDoctor
}

// SourceRow is one referral source within one month. Referrals and Production
// are held as text while editing so transient empty or partial input is
// representable; use the Value accessors for arithmetic.
type SourceRow struct {
	ID         string
	Source     string
	Type       ReferralType
	Referrals  string
	Production string
}

// NewSourceRow creates an empty self-classified row with a fresh local id.
// The id is never persisted; it only anchors UI state like armed deletes.
func NewSourceRow() SourceRow {
	return SourceRow{
		ID:         uuid.NewString(),
		Type:       ReferralSelf,
		Referrals:  "0",
		Production: "0",
	}
}

// ReferralCount parses the referral text, treating anything unparsable as zero.
func (r SourceRow) ReferralCount() int {
	n, err := strconv.Atoi(r.Referrals)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ProductionAmount parses the production text, treating anything unparsable as zero.
func (r SourceRow) ProductionAmount() float64 {
	v, err := strconv.ParseFloat(r.Production, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// HasName reports whether the row has a non-empty source name.
func (r SourceRow) HasName() bool {
	return r.Source != ""
}

// HasData reports whether the row carries a nonzero referral count or
// production amount.
func (r SourceRow) HasData() bool {
	return r.ReferralCount() > 0 || r.ProductionAmount() > 0
}

// MonthBucket holds one calendar month's worth of source rows. Rows keep
// insertion order; Month is a zero-padded YYYY-MM string, so lexicographic
// order is chronological order.
type MonthBucket struct {
	ID    string
	Month string
	Rows  []SourceRow
}

// NewMonthBucket creates an empty bucket for the given YYYY-MM month.
func NewMonthBucket(month string) MonthBucket {
	return MonthBucket{
		ID:    uuid.NewString(),
		Month: month,
	}
}

// MonthSummary is a derived per-month aggregate. It is recomputed from the
// current rows on demand and never persisted, so it cannot go stale.
type MonthSummary struct {
	SelfReferrals   int
	DoctorReferrals int
	TotalReferrals  int
	ProductionTotal float64
}
