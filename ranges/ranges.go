package ranges

import (
	"fmt"
	"strings"
)

// Range is the clinically normal interval for a marker. Min/Max are
// inclusive bounds; a value is abnormal only when strictly outside.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

// entry is one row of the lookup table. Either Flat is set, or the
// Male/Female pair is set for gender-partitioned markers.
type entry struct {
	key    string
	flat   *Range
	male   *Range
	female *Range
}

// Status values returned by Status().
const (
	StatusLow     = "low"
	StatusHigh    = "high"
	StatusNormal  = "normal"
	StatusUnknown = "unknown"
)

func r(min, max float64, unit string) *Range { return &Range{Min: min, Max: max, Unit: unit} }

// table is ordered: substring fallback matching walks it top to bottom and
// the first hit wins, so more specific keys must come before shorter ones
// (e.g. "direct bilirubin" before "bilirubin"). Do not sort.
var table = []entry{
	// Complete blood count
	{key: "hemoglobin", male: r(13.5, 17.5, "g/dl"), female: r(12.0, 15.0, "g/dl")},
	{key: "hgb", male: r(13.5, 17.5, "g/dl"), female: r(12.0, 15.0, "g/dl")},
	{key: "r.b.c. count", male: r(4.5, 5.9, "million/cumm"), female: r(4.1, 5.1, "million/cumm")},
	{key: "rbc count", male: r(4.5, 5.9, "million/cumm"), female: r(4.1, 5.1, "million/cumm")},
	{key: "red blood cell count", male: r(4.5, 5.9, "million/cumm"), female: r(4.1, 5.1, "million/cumm")},
	{key: "packed cell volume", male: r(40.0, 52.0, "%"), female: r(36.0, 48.0, "%")},
	{key: "p.c.v.", male: r(40.0, 52.0, "%"), female: r(36.0, 48.0, "%")},
	{key: "hematocrit", male: r(40.0, 52.0, "%"), female: r(36.0, 48.0, "%")},
	{key: "m.c.v.", flat: r(80.0, 100.0, "fL")},
	{key: "mcv", flat: r(80.0, 100.0, "fL")},
	{key: "mch", flat: r(27.0, 32.0, "pg")},
	{key: "mchc", flat: r(32.0, 36.0, "gm/dl")},
	{key: "rdw sd", flat: r(35.0, 56.0, "fL")},
	{key: "rdw", flat: r(11.5, 14.5, "%")},
	{key: "total leucocyte count", flat: r(4000.0, 11000.0, "cells/cumm")},
	{key: "total leukocyte count", flat: r(4000.0, 11000.0, "cells/cumm")},
	{key: "white blood cell count", flat: r(4000.0, 11000.0, "cells/cumm")},
	{key: "tlc", flat: r(4000.0, 11000.0, "cells/cumm")},
	{key: "wbc", flat: r(4000.0, 11000.0, "cells/cumm")},

	// Differential count. Absolute variants precede the percentage rows so
	// "absolute neutrophil count" never falls through to "neutrophil".
	{key: "absolute neutrophil count", flat: r(2.0, 7.0, "10³/μL")},
	{key: "absolute lymphocyte count", flat: r(1.0, 3.0, "10³/μL")},
	{key: "absolute eosinophil count", flat: r(0.02, 0.5, "10³/μL")},
	{key: "absolute monocyte count", flat: r(0.2, 1.0, "10³/μL")},
	{key: "absolute basophil count", flat: r(0.0, 0.1, "10³/μL")},
	{key: "neutrophil", flat: r(40.0, 70.0, "%")},
	{key: "lymphocyte", flat: r(20.0, 40.0, "%")},
	{key: "eosinophil", flat: r(1.0, 6.0, "%")},
	{key: "monocyte", flat: r(2.0, 10.0, "%")},
	{key: "basophil", flat: r(0.0, 2.0, "%")},

	// Platelets
	{key: "platelet count", flat: r(1.5, 4.5, "Lakhs/cmm")},
	{key: "platelet", flat: r(1.5, 4.5, "Lakhs/cmm")},
	{key: "mpv", flat: r(7.5, 11.5, "fL")},

	// Blood sugar
	{key: "fasting blood sugar", flat: r(70.0, 100.0, "mg/dl")},
	{key: "fbs", flat: r(70.0, 100.0, "mg/dl")},
	{key: "post prandial blood sugar", flat: r(70.0, 140.0, "mg/dl")},
	{key: "ppbs", flat: r(70.0, 140.0, "mg/dl")},
	{key: "random blood sugar", flat: r(70.0, 140.0, "mg/dl")},
	{key: "rbs", flat: r(70.0, 140.0, "mg/dl")},
	{key: "glucose", flat: r(70.0, 100.0, "mg/dl")},
	{key: "hba1c", flat: r(4.0, 5.6, "%")},

	// Lipid profile
	{key: "total cholesterol", flat: r(125.0, 200.0, "mg/dl")},
	{key: "hdl", male: r(40.0, 60.0, "mg/dl"), female: r(50.0, 60.0, "mg/dl")},
	{key: "vldl", flat: r(5.0, 40.0, "mg/dl")},
	{key: "ldl", flat: r(0.0, 100.0, "mg/dl")},
	{key: "triglyceride", flat: r(25.0, 150.0, "mg/dl")},
	{key: "cholesterol", flat: r(125.0, 200.0, "mg/dl")},

	// Kidney function
	{key: "creatinine", male: r(0.7, 1.3, "mg/dl"), female: r(0.6, 1.1, "mg/dl")},
	{key: "blood urea", flat: r(15.0, 40.0, "mg/dl")},
	{key: "urea", flat: r(15.0, 40.0, "mg/dl")},
	{key: "bun", flat: r(7.0, 20.0, "mg/dl")},
	{key: "uric acid", male: r(3.5, 7.2, "mg/dl"), female: r(2.6, 6.0, "mg/dl")},

	// Liver function
	{key: "direct bilirubin", flat: r(0.0, 0.3, "mg/dl")},
	{key: "indirect bilirubin", flat: r(0.2, 0.9, "mg/dl")},
	{key: "total bilirubin", flat: r(0.1, 1.2, "mg/dl")},
	{key: "bilirubin", flat: r(0.1, 1.2, "mg/dl")},
	{key: "sgot", male: r(10.0, 40.0, "U/L"), female: r(9.0, 32.0, "U/L")},
	{key: "ast", male: r(10.0, 40.0, "U/L"), female: r(9.0, 32.0, "U/L")},
	{key: "sgpt", male: r(10.0, 49.0, "U/L"), female: r(7.0, 35.0, "U/L")},
	{key: "alt", male: r(10.0, 49.0, "U/L"), female: r(7.0, 35.0, "U/L")},
	{key: "alkaline phosphatase", flat: r(44.0, 147.0, "U/L")},
	{key: "alp", flat: r(44.0, 147.0, "U/L")},
	{key: "ggt", male: r(8.0, 61.0, "U/L"), female: r(5.0, 36.0, "U/L")},
	{key: "total protein", flat: r(6.0, 8.3, "g/dl")},
	{key: "albumin", flat: r(3.5, 5.0, "g/dl")},
	{key: "globulin", flat: r(2.0, 3.5, "g/dl")},
	{key: "protein", flat: r(6.0, 8.3, "g/dl")},

	// Electrolytes
	{key: "sodium", flat: r(136.0, 145.0, "mEq/L")},
	{key: "potassium", flat: r(3.5, 5.1, "mEq/L")},
	{key: "chloride", flat: r(98.0, 107.0, "mEq/L")},
	{key: "calcium", flat: r(8.5, 10.5, "mg/dl")},

	// Thyroid
	{key: "tsh", flat: r(0.4, 4.0, "μIU/mL")},
	{key: "t3", flat: r(80.0, 200.0, "ng/dl")},
	{key: "t4", flat: r(4.5, 12.0, "μg/dl")},

	// Others
	{key: "esr", male: r(0.0, 15.0, "mm/hr"), female: r(0.0, 20.0, "mm/hr")},
	{key: "vitamin d", flat: r(30.0, 100.0, "ng/mL")},
	{key: "vitamin b12", flat: r(200.0, 900.0, "pg/mL")},
	{key: "ferritin", male: r(24.0, 336.0, "ng/mL"), female: r(11.0, 307.0, "ng/mL")},
	{key: "serum iron", male: r(65.0, 176.0, "μg/dl"), female: r(50.0, 170.0, "μg/dl")},
	{key: "iron", male: r(65.0, 176.0, "μg/dl"), female: r(50.0, 170.0, "μg/dl")},
	{key: "crp", flat: r(0.0, 10.0, "mg/L")},
}

// Normalize lowercases a marker name, strips parentheses and colons and
// collapses internal whitespace. Same rules as the report extractor so both
// sides agree on marker identity.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer("(", "", ")", "", ":", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Get resolves the reference range for a marker and gender. Exact key match
// is tried first, then an ordered substring fallback in both directions.
// Returns nil for unknown markers.
func Get(marker, gender string) *Range {
	name := Normalize(marker)
	if name == "" {
		return nil
	}
	for _, e := range table {
		if e.key == name {
			return e.resolve(gender)
		}
	}
	for _, e := range table {
		if strings.Contains(name, e.key) || strings.Contains(e.key, name) {
			return e.resolve(gender)
		}
	}
	return nil
}

func (e entry) resolve(gender string) *Range {
	if e.flat != nil {
		return e.flat
	}
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "m":
		return e.male
	case "female", "f":
		return e.female
	default:
		// Unspecified or "Other": widest of the two so nothing normal for
		// either sex gets flagged.
		u := Range{Min: e.male.Min, Max: e.male.Max, Unit: e.male.Unit}
		if e.female.Min < u.Min {
			u.Min = e.female.Min
		}
		if e.female.Max > u.Max {
			u.Max = e.female.Max
		}
		return &u
	}
}

// IsAbnormal reports whether value is strictly outside the marker's range.
// Unknown markers are never abnormal.
func IsAbnormal(marker string, value float64, gender string) bool {
	rg := Get(marker, gender)
	if rg == nil {
		return false
	}
	return value < rg.Min || value > rg.Max
}

// Status classifies a value as low/high/normal, or unknown when no range
// exists for the marker.
func Status(marker string, value float64, gender string) string {
	rg := Get(marker, gender)
	if rg == nil {
		return StatusUnknown
	}
	switch {
	case value < rg.Min:
		return StatusLow
	case value > rg.Max:
		return StatusHigh
	default:
		return StatusNormal
	}
}

// Severity grades an out-of-range value. More than 20% past the breached
// bound counts as significant; values at or inside the bounds are "normal".
func Severity(marker string, value float64, gender string) string {
	rg := Get(marker, gender)
	if rg == nil {
		return StatusUnknown
	}
	switch {
	case value < rg.Min:
		if rg.Min > 0 && (rg.Min-value)/rg.Min > 0.20 {
			return "significantly low"
		}
		return "slightly low"
	case value > rg.Max:
		if rg.Max > 0 && (value-rg.Max)/rg.Max > 0.20 {
			return "significantly high"
		}
		return "slightly high"
	default:
		return StatusNormal
	}
}

// Format renders a range as "min - max unit" for prompts and API payloads,
// or "N/A" when the range is unknown.
func Format(rg *Range) string {
	if rg == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s - %s %s", trimFloat(rg.Min), trimFloat(rg.Max), rg.Unit)
}

// FormatFor is Format over a marker/gender pair.
func FormatFor(marker, gender string) string {
	return Format(Get(marker, gender))
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
