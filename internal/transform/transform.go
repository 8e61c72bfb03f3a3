package transform

import (
	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/wire"
)

// BackendToUI converts normalized backend month records into editable month
// buckets. Rows with a missing or unrecognized inferred_referral_type are
// classified as "self": absent classification goes to the no-special-handling
// bucket, and downstream doctor totals depend on that policy staying put.
func BackendToUI(months []wire.MonthEntryForm) []model.MonthBucket {
	buckets := make([]model.MonthBucket, 0, len(months))
	for _, m := range months {
		bucket := model.NewMonthBucket(m.Month)
		bucket.Rows = make([]model.SourceRow, 0, len(m.Sources))
		for _, src := range m.Sources {
			row := model.NewSourceRow()
			row.Source = src.Name
			row.Type = inferType(src.InferredReferralType)
			row.Referrals = numberToText(src.Referrals)
			row.Production = numberToText(src.Production)
			bucket.Rows = append(bucket.Rows, row)
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

func inferType(raw string) model.ReferralType {
	if t := model.ReferralType(raw); t.Valid() {
		return t
	}
	return model.ReferralSelf
}

// UIToBackend serializes month buckets back into the backend record shape.
// total_referrals is summed over all rows independently of the self/doctor
// partition sums; today every row is one or the other, so the three agree.
func UIToBackend(months []model.MonthBucket) []wire.MonthEntryForm {
	forms := make([]wire.MonthEntryForm, 0, len(months))
	for _, bucket := range months {
		form := wire.MonthEntryForm{
			Month:   bucket.Month,
			Sources: make([]wire.SourceEntryForm, 0, len(bucket.Rows)),
		}

		for _, row := range bucket.Rows {
			switch row.Type {
			case model.ReferralDoctor:
				form.DoctorReferrals += row.ReferralCount()
			default:
				form.SelfReferrals += row.ReferralCount()
			}
			form.TotalReferrals += row.ReferralCount()
			form.ProductionTotal += row.ProductionAmount()

			form.Sources = append(form.Sources, wire.SourceEntryForm{
				Name:                 row.Source,
				Referrals:            float64(row.ReferralCount()),
				Production:           row.ProductionAmount(),
				InferredReferralType: string(row.Type),
			})
		}

		forms = append(forms, form)
	}
	return forms
}

// CalculateTotals aggregates a single month's rows into its summary. Pure and
// cheap; callers run it on every edit.
func CalculateTotals(rows []model.SourceRow) model.MonthSummary {
	var summary model.MonthSummary
	for _, row := range rows {
		count := row.ReferralCount()
		if row.Type == model.ReferralDoctor {
			summary.DoctorReferrals += count
		} else {
			summary.SelfReferrals += count
		}
		summary.TotalReferrals += count
		summary.ProductionTotal += row.ProductionAmount()
	}
	return summary
}
