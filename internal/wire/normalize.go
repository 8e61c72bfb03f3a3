package wire

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ParseError reports a payload that does not match the expected month-entry
// shape. Path points at the offending element.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid month payload at %s: %s", e.Path, e.Reason)
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Normalize parses a raw gateway payload into the strict internal schema.
// The payload may be a bare JSON array of month entries or an object wrapping
// that array under a "months" key. Shape violations fail with a *ParseError
// rather than silently defaulting; numeric fields individually tolerate
// string encodings and null, which coerce to zero.
func Normalize(raw []byte) ([]MonthEntryForm, error) {
	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &ParseError{Path: "$", Reason: err.Error()}
	}

	var entries []any
	switch v := top.(type) {
	case []any:
		entries = v
	case map[string]any:
		inner, ok := v["months"]
		if !ok {
			return nil, &ParseError{Path: "$", Reason: `object payload is missing "months"`}
		}
		entries, ok = inner.([]any)
		if !ok {
			return nil, &ParseError{Path: "$.months", Reason: "expected an array"}
		}
	case nil:
		return []MonthEntryForm{}, nil
	default:
		return nil, &ParseError{Path: "$", Reason: fmt.Sprintf("expected array or object, got %T", top)}
	}

	months := make([]MonthEntryForm, 0, len(entries))
	for i, entry := range entries {
		path := fmt.Sprintf("$.months[%d]", i)
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, &ParseError{Path: path, Reason: "expected an object"}
		}

		form, err := normalizeMonth(obj, path)
		if err != nil {
			return nil, err
		}
		months = append(months, form)
	}

	return months, nil
}

func normalizeMonth(obj map[string]any, path string) (MonthEntryForm, error) {
	month, ok := obj["month"].(string)
	if !ok {
		return MonthEntryForm{}, &ParseError{Path: path + ".month", Reason: "expected a string"}
	}
	if !monthPattern.MatchString(month) {
		return MonthEntryForm{}, &ParseError{Path: path + ".month", Reason: fmt.Sprintf("%q is not YYYY-MM", month)}
	}

	form := MonthEntryForm{
		Month:           month,
		SelfReferrals:   int(coerceNumber(obj["self_referrals"])),
		DoctorReferrals: int(coerceNumber(obj["doctor_referrals"])),
		TotalReferrals:  int(coerceNumber(obj["total_referrals"])),
		ProductionTotal: coerceNumber(obj["production_total"]),
	}

	rawSources, ok := obj["sources"]
	if !ok || rawSources == nil {
		return form, nil
	}
	sources, ok := rawSources.([]any)
	if !ok {
		return MonthEntryForm{}, &ParseError{Path: path + ".sources", Reason: "expected an array"}
	}

	form.Sources = make([]SourceEntryForm, 0, len(sources))
	for j, rawSource := range sources {
		sourcePath := fmt.Sprintf("%s.sources[%d]", path, j)
		src, ok := rawSource.(map[string]any)
		if !ok {
			return MonthEntryForm{}, &ParseError{Path: sourcePath, Reason: "expected an object"}
		}

		name, _ := src["name"].(string)
		entry := SourceEntryForm{
			Name:       name,
			Referrals:  coerceNumber(src["referrals"]),
			Production: coerceNumber(src["production"]),
		}
		if inferred, ok := src["inferred_referral_type"]; ok && inferred != nil {
			s, ok := inferred.(string)
			if !ok {
				return MonthEntryForm{}, &ParseError{Path: sourcePath + ".inferred_referral_type", Reason: "expected a string"}
			}
			entry.InferredReferralType = s
		}
		form.Sources = append(form.Sources, entry)
	}

	return form, nil
}

// coerceNumber converts a decoded JSON value to a float64. Numbers pass
// through; numeric strings parse; null, missing, and anything unparsable
// coerce to zero.
func coerceNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
