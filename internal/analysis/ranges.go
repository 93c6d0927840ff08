package analysis

import (
	"fmt"
	"strings"
)

// ReferenceRange is one entry of the blood-panel catalogue: the
// canonical parameter name, the aliases labs print for it, its unit
// and the adult reference interval used for classification.
type ReferenceRange struct {
	Name    string
	Aliases []string
	Unit    string
	Min     float64
	Max     float64
	// Critical bounds widen the reference interval; values beyond
	// them escalate the risk tier on their own.
	CriticalMin float64
	CriticalMax float64
}

// Label renders the interval the way reports print it, e.g. "12.0-15.5".
func (r ReferenceRange) Label() string {
	return fmt.Sprintf("%s-%s", trimFloat(r.Min), trimFloat(r.Max))
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.1f", f)
	s = strings.TrimSuffix(s, ".0")
	if f >= 100 {
		return fmt.Sprintf("%.0f", f)
	}
	return s
}

// referenceRanges is the authoritative catalogue of panel parameters.
// Adult unisex intervals; values and units follow common lab reports.
var referenceRanges = []ReferenceRange{
	{
		Name:    "Hemoglobin",
		Aliases: []string{"hemoglobin", "haemoglobin", "hgb", "hb"},
		Unit:    "g/dL",
		Min:     12.0, Max: 15.5,
		CriticalMin: 7.0, CriticalMax: 20.0,
	},
	{
		Name:    "White Blood Cells",
		Aliases: []string{"white blood cells", "white blood cell count", "wbc", "leukocytes", "total leucocyte count", "tlc"},
		Unit:    "x10³/μL",
		Min:     4.5, Max: 11.0,
		CriticalMin: 1.0, CriticalMax: 30.0,
	},
	{
		Name:    "Red Blood Cells",
		Aliases: []string{"red blood cells", "red blood cell count", "rbc", "erythrocytes"},
		Unit:    "x10⁶/μL",
		Min:     4.0, Max: 5.6,
		CriticalMin: 2.0, CriticalMax: 8.0,
	},
	{
		Name:    "Platelets",
		Aliases: []string{"platelets", "platelet count", "plt", "thrombocytes"},
		Unit:    "x10³/μL",
		Min:     150, Max: 450,
		CriticalMin: 20, CriticalMax: 1000,
	},
	{
		Name:    "Hematocrit",
		Aliases: []string{"hematocrit", "haematocrit", "hct", "pcv", "packed cell volume"},
		Unit:    "%",
		Min:     36, Max: 48,
		CriticalMin: 20, CriticalMax: 60,
	},
	{
		Name:    "Glucose",
		Aliases: []string{"glucose", "blood glucose", "fasting glucose", "fasting blood sugar", "fbs"},
		Unit:    "mg/dL",
		Min:     70, Max: 100,
		CriticalMin: 40, CriticalMax: 400,
	},
	{
		Name:    "Total Cholesterol",
		Aliases: []string{"total cholesterol", "cholesterol"},
		Unit:    "mg/dL",
		Min:     125, Max: 200,
		CriticalMin: 50, CriticalMax: 400,
	},
	{
		Name:    "HDL Cholesterol",
		Aliases: []string{"hdl cholesterol", "hdl"},
		Unit:    "mg/dL",
		Min:     40, Max: 90,
		CriticalMin: 10, CriticalMax: 150,
	},
	{
		Name:    "LDL Cholesterol",
		Aliases: []string{"ldl cholesterol", "ldl"},
		Unit:    "mg/dL",
		Min:     50, Max: 130,
		CriticalMin: 10, CriticalMax: 300,
	},
	{
		Name:    "Triglycerides",
		Aliases: []string{"triglycerides", "tg"},
		Unit:    "mg/dL",
		Min:     40, Max: 150,
		CriticalMin: 10, CriticalMax: 1000,
	},
	{
		Name:    "Creatinine",
		Aliases: []string{"creatinine", "serum creatinine"},
		Unit:    "mg/dL",
		Min:     0.6, Max: 1.3,
		CriticalMin: 0.2, CriticalMax: 10.0,
	},
	{
		Name:    "Urea",
		Aliases: []string{"urea", "blood urea", "bun", "blood urea nitrogen"},
		Unit:    "mg/dL",
		Min:     7, Max: 20,
		CriticalMin: 2, CriticalMax: 100,
	},
	{
		Name:    "ESR",
		Aliases: []string{"esr", "erythrocyte sedimentation rate"},
		Unit:    "mm/hr",
		Min:     0, Max: 20,
		CriticalMin: 0, CriticalMax: 100,
	},
}

var rangesByAlias = buildAliasIndex()

func buildAliasIndex() map[string]*ReferenceRange {
	index := make(map[string]*ReferenceRange)
	for i := range referenceRanges {
		for _, alias := range referenceRanges[i].Aliases {
			index[alias] = &referenceRanges[i]
		}
	}
	return index
}

// LookupRange resolves a printed parameter label to its catalogue entry.
func LookupRange(label string) (*ReferenceRange, bool) {
	r, ok := rangesByAlias[strings.ToLower(strings.TrimSpace(label))]
	return r, ok
}

// Ranges returns the full catalogue.
func Ranges() []ReferenceRange {
	return referenceRanges
}
