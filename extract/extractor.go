package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Marker is one extracted lab value. Extraction is fully deterministic:
// no model call ever sees the PDF, so values cannot be hallucinated.
type Marker struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Lines containing any of these are report boilerplate, never test rows.
var skipKeywords = []string{
	"TEST PARAMETER", "REFERENCE RANGE", "RESULT", "UNIT", "SAMPLE TYPE",
	"Page", "Report Status", "Collected On", "Reported On", "Final",
	"Method:", "Automated", "Patient Location", "Flowcytometry",
	"Lab ID", "UH ID", "Registered On", "Age/Gender", "Electrical Impedence",
	"LABORATORY TEST REPORT", "HAEMATOLOGY", "Ref. By", "Calculated",
	"Processed By", "End Of Report", "EDTA", "Pathologist", "whole blood",
	"TERMS & CONDITIONS", "Dr ", "COMPLETE BLOOD COUNT",
	"Male", "Female", "Years", "Name", "Mr.", "Mrs.", "Ms.",
	"Differential Leucocyte Count", "IP/OP No",
}

// unitMap assigns units by test name. Lab PDFs frequently put the unit in a
// column the text layer scrambles, so units are resolved from this table
// instead of the document.
var unitMap = []struct{ key, unit string }{
	// Complete blood count
	{"hemoglobin", "gm/dl"},
	{"hb", "gm/dl"},
	{"hgb", "gm/dl"},
	{"r.b.c. count", "million/cumm"},
	{"rbc count", "million/cumm"},
	{"red blood cell count", "million/cumm"},
	{"rbc", "million/cumm"},
	{"p.c.v.", "%"},
	{"pcv", "%"},
	{"packed cell volume", "%"},
	{"hematocrit", "%"},
	{"hct", "%"},
	{"mean corpuscular volume", "fL"},
	{"mcv", "fL"},
	{"mean corpuscular hemoglobin concentration", "gm/dl"},
	{"mean corpuscular hemoglobin", "pg"},
	{"mchc", "gm/dl"},
	{"mch", "pg"},
	{"red cell distribution width", "%"},
	{"rdw-cv", "%"},
	{"rdw cv", "%"},
	{"rdw sd", "fL"},
	{"rdw-sd", "fL"},
	{"rdw", "%"},
	{"total leucocyte count", "cells/cumm"},
	{"total leukocyte count", "cells/cumm"},
	{"white blood cell count", "cells/cumm"},
	{"tlc", "cells/cumm"},
	{"wbc count", "cells/cumm"},
	{"wbc", "cells/cumm"},

	// Differential and absolute counts
	{"absolute neutrophil count", "10³/μL"},
	{"absolute lymphocyte count", "10³/μL"},
	{"absolute eosinophil count", "10³/μL"},
	{"absolute monocyte count", "10³/μL"},
	{"absolute basophil count", "10³/μL"},
	{"anc", "10³/μL"},
	{"alc", "10³/μL"},
	{"aec", "10³/μL"},
	{"amc", "10³/μL"},
	{"abc", "10³/μL"},
	{"neutrophils", "%"},
	{"neutrophil", "%"},
	{"lymphocytes", "%"},
	{"lymphocyte", "%"},
	{"eosinophils", "%"},
	{"eosinophil", "%"},
	{"monocytes", "%"},
	{"monocyte", "%"},
	{"basophils", "%"},
	{"basophil", "%"},

	// Platelets
	{"platelet count", "Lakhs/cmm"},
	{"platelet", "Lakhs/cmm"},
	{"plt", "Lakhs/cmm"},
	{"mean platelet volume", "fL"},
	{"mpv", "fL"},

	// Blood sugar
	{"fasting blood sugar", "mg/dl"},
	{"post prandial blood sugar", "mg/dl"},
	{"random blood sugar", "mg/dl"},
	{"glucose", "mg/dl"},
	{"fbs", "mg/dl"},
	{"ppbs", "mg/dl"},
	{"rbs", "mg/dl"},
	{"hba1c", "%"},

	// Lipid profile
	{"total cholesterol", "mg/dl"},
	{"cholesterol", "mg/dl"},
	{"hdl", "mg/dl"},
	{"ldl", "mg/dl"},
	{"vldl", "mg/dl"},
	{"triglycerides", "mg/dl"},
	{"triglyceride", "mg/dl"},

	// Kidney function
	{"creatinine", "mg/dl"},
	{"blood urea", "mg/dl"},
	{"urea", "mg/dl"},
	{"bun", "mg/dl"},
	{"uric acid", "mg/dl"},

	// Liver function
	{"total bilirubin", "mg/dl"},
	{"direct bilirubin", "mg/dl"},
	{"indirect bilirubin", "mg/dl"},
	{"bilirubin", "mg/dl"},
	{"alkaline phosphatase", "U/L"},
	{"sgot", "U/L"},
	{"sgpt", "U/L"},
	{"ast", "U/L"},
	{"alt", "U/L"},
	{"alp", "U/L"},
	{"ggt", "U/L"},
	{"total protein", "g/dl"},
	{"protein", "g/dl"},
	{"albumin", "g/dl"},
	{"globulin", "g/dl"},

	// Electrolytes
	{"sodium", "mEq/L"},
	{"potassium", "mEq/L"},
	{"calcium", "mg/dl"},
	{"chloride", "mEq/L"},

	// Thyroid
	{"tsh", "μIU/mL"},
	{"t3", "ng/dl"},
	{"t4", "μg/dl"},

	// Others
	{"esr", "mm/hr"},
	{"vitamin d", "ng/mL"},
	{"vitamin b12", "pg/mL"},
}

var resultValueRe = regexp.MustCompile(`^[\d\.]+$`)

// ParseText walks the text layer of one page. Reports print the test name on
// its own line with the numeric result on one of the next few lines, so for
// each candidate name we look ahead a bounded number of lines for a bare
// number.
func ParseText(text string) []Marker {
	var out []Marker
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line == "" || shouldSkipLine(line) {
			continue
		}
		if !isPotentialTestName(line) {
			continue
		}
		for j := i + 1; j < len(lines) && j < i+7; j++ {
			next := lines[j]
			if next == "" || strings.Contains(next, "Method:") ||
				strings.Contains(next, "Automated") || strings.Contains(next, "Calculated") {
				continue
			}
			if !resultValueRe.MatchString(next) {
				continue
			}
			v, err := strconv.ParseFloat(next, 64)
			if err != nil {
				continue
			}
			out = append(out, Marker{
				Name:  cleanTestName(line),
				Value: v,
				Unit:  UnitFor(line),
			})
			i = j
			break
		}
	}
	return Dedupe(out)
}

// UnitFor resolves the unit for a test name: exact lookup on the normalized
// name first, then ordered partial matching in both directions. Unknown
// tests get an empty unit rather than a guess.
func UnitFor(testName string) string {
	name := normalizeTestName(testName)
	for _, e := range unitMap {
		if e.key == name {
			return e.unit
		}
	}
	for _, e := range unitMap {
		if strings.Contains(name, e.key) || strings.Contains(e.key, name) {
			return e.unit
		}
	}
	return ""
}

func normalizeTestName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer(":", "", "(", "", ")", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func shouldSkipLine(line string) bool {
	lower := strings.ToLower(line)
	for _, k := range skipKeywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	if len(line) <= 1 {
		return true
	}
	for _, c := range line {
		if !strings.ContainsRune("-:/", c) {
			return false
		}
	}
	return true
}

// isPotentialTestName accepts lines that start uppercase and are mostly
// uppercase letters, the way lab reports print parameter names.
func isPotentialTestName(line string) bool {
	if len(line) < 3 {
		return false
	}
	first := rune(line[0])
	if first < 'A' || first > 'Z' {
		return false
	}
	letters, uppers := 0, 0
	for _, c := range line {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			letters++
			if c >= 'A' && c <= 'Z' {
				uppers++
			}
		}
	}
	if letters == 0 {
		return false
	}
	return float64(uppers)/float64(letters) >= 0.5
}

func cleanTestName(name string) string {
	s := strings.Join(strings.Fields(name), " ")
	return strings.TrimSpace(strings.TrimSuffix(s, ":"))
}

// Dedupe drops repeated (name,value) pairs; multi-page reports often repeat
// the summary table.
func Dedupe(in []Marker) []Marker {
	type key struct {
		name  string
		value float64
	}
	seen := make(map[key]struct{}, len(in))
	out := make([]Marker, 0, len(in))
	for _, m := range in {
		k := key{strings.ToLower(m.Name), m.Value}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}
