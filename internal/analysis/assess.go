package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bloodsight/bloodsight-api/internal/model"
)

// conditions suggested by specific out-of-range parameters. These are
// informational hints, not diagnoses.
var conditionHints = map[string]map[model.ValueStatus]string{
	"Hemoglobin": {
		model.ValueStatusLow:  "Possible anemia",
		model.ValueStatusHigh: "Possible polycythemia",
	},
	"White Blood Cells": {
		model.ValueStatusLow:  "Possible immunosuppression",
		model.ValueStatusHigh: "Possible infection or inflammation",
	},
	"Platelets": {
		model.ValueStatusLow:  "Possible thrombocytopenia",
		model.ValueStatusHigh: "Possible thrombocytosis",
	},
	"Glucose": {
		model.ValueStatusLow:  "Possible hypoglycemia",
		model.ValueStatusHigh: "Possible hyperglycemia",
	},
	"Total Cholesterol": {
		model.ValueStatusHigh: "Possible hypercholesterolemia",
	},
	"Creatinine": {
		model.ValueStatusHigh: "Possible impaired kidney function",
	},
}

// Assess derives the analysis summary for a set of classified values:
// overall health text, per-value findings, recommendations, the
// Low/Medium/High risk tier and suggested conditions.
func Assess(values []model.BloodValue) *model.Analysis {
	analysis := &model.Analysis{
		BloodValues: values,
	}

	var abnormal, critical int
	for _, v := range values {
		analysis.KeyFindings = append(analysis.KeyFindings, finding(v))

		if v.Status == model.ValueStatusNormal {
			continue
		}
		abnormal++
		analysis.AbnormalValues = append(analysis.AbnormalValues, fmt.Sprintf("%s: %s %s (%s)", v.Name, v.Value, v.Unit, v.Status))
		if isCritical(v) {
			critical++
		}

		if hint, ok := conditionHints[v.Name][v.Status]; ok {
			analysis.Conditions = append(analysis.Conditions, hint)
		}
		analysis.Recommendations = append(analysis.Recommendations, recommendation(v))
	}

	switch {
	case critical > 0 || abnormal >= 3:
		analysis.RiskLevel = model.RiskLevelHigh
		analysis.OverallHealth = "Attention Required"
		analysis.Recommendations = append(analysis.Recommendations,
			"Consult your physician promptly to review these results")
	case abnormal > 0:
		analysis.RiskLevel = model.RiskLevelMedium
		analysis.OverallHealth = "Mostly Normal with Some Deviations"
		analysis.Recommendations = append(analysis.Recommendations,
			"Schedule a follow-up test in 2-4 weeks",
			"Discuss the flagged values with your doctor")
	default:
		analysis.RiskLevel = model.RiskLevelLow
		analysis.OverallHealth = "Generally Normal"
		analysis.Recommendations = append(analysis.Recommendations,
			"Maintain current diet and exercise routine",
			"Regular follow-up in 3 months")
	}

	if len(values) == 0 {
		analysis.OverallHealth = "Analysis pending"
		analysis.KeyFindings = []string{"No recognizable blood values found in the report"}
		analysis.Recommendations = []string{"Please consult your doctor"}
		analysis.RiskLevel = model.RiskLevelLow
	}

	return analysis
}

func finding(v model.BloodValue) string {
	switch v.Status {
	case model.ValueStatusHigh:
		return fmt.Sprintf("%s elevated (%s %s, normal %s)", v.Name, v.Value, v.Unit, v.NormalRange)
	case model.ValueStatusLow:
		return fmt.Sprintf("%s below normal range (%s %s, normal %s)", v.Name, v.Value, v.Unit, v.NormalRange)
	default:
		return fmt.Sprintf("%s within normal range (%s %s)", v.Name, v.Value, v.Unit)
	}
}

func recommendation(v model.BloodValue) string {
	direction := "elevated"
	if v.Status == model.ValueStatusLow {
		direction = "low"
	}
	return fmt.Sprintf("Monitor %s (%s) and retest if it remains %s", strings.ToLower(v.Name), v.Value, direction)
}

func isCritical(v model.BloodValue) bool {
	ref, ok := LookupRange(v.Name)
	if !ok {
		return false
	}
	value, err := strconv.ParseFloat(v.Value, 64)
	if err != nil {
		return false
	}
	return value < ref.CriticalMin || value > ref.CriticalMax
}
