package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodsight/bloodsight-api/internal/model"
)

func bv(name, value, unit, normalRange string, status model.ValueStatus) model.BloodValue {
	return model.BloodValue{Name: name, Value: value, Unit: unit, NormalRange: normalRange, Status: status}
}

func TestAssessAllNormal(t *testing.T) {
	analysis := Assess([]model.BloodValue{
		bv("Hemoglobin", "13.2", "g/dL", "12-15.5", model.ValueStatusNormal),
		bv("Platelets", "280", "x10³/μL", "150-450", model.ValueStatusNormal),
	})

	assert.Equal(t, model.RiskLevelLow, analysis.RiskLevel)
	assert.Equal(t, "Generally Normal", analysis.OverallHealth)
	assert.Len(t, analysis.KeyFindings, 2)
	assert.Empty(t, analysis.AbnormalValues)
	assert.Contains(t, analysis.Recommendations, "Regular follow-up in 3 months")
}

func TestAssessSingleAbnormal(t *testing.T) {
	analysis := Assess([]model.BloodValue{
		bv("Hemoglobin", "13.2", "g/dL", "12-15.5", model.ValueStatusNormal),
		bv("White Blood Cells", "11.2", "x10³/μL", "4.5-11", model.ValueStatusHigh),
	})

	assert.Equal(t, model.RiskLevelMedium, analysis.RiskLevel)
	require.Len(t, analysis.AbnormalValues, 1)
	assert.Contains(t, analysis.AbnormalValues[0], "White Blood Cells")
	assert.Contains(t, analysis.Conditions, "Possible infection or inflammation")
}

func TestAssessCriticalValueEscalates(t *testing.T) {
	// Hemoglobin below the critical floor escalates on its own.
	analysis := Assess([]model.BloodValue{
		bv("Hemoglobin", "6.1", "g/dL", "12-15.5", model.ValueStatusLow),
	})

	assert.Equal(t, model.RiskLevelHigh, analysis.RiskLevel)
	assert.Equal(t, "Attention Required", analysis.OverallHealth)
	assert.Contains(t, analysis.Conditions, "Possible anemia")
	assert.Contains(t, analysis.Recommendations,
		"Consult your physician promptly to review these results")
}

func TestAssessManyAbnormals(t *testing.T) {
	analysis := Assess([]model.BloodValue{
		bv("Glucose", "112", "mg/dL", "70-100", model.ValueStatusHigh),
		bv("Total Cholesterol", "215", "mg/dL", "125-200", model.ValueStatusHigh),
		bv("Triglycerides", "180", "mg/dL", "40-150", model.ValueStatusHigh),
	})

	assert.Equal(t, model.RiskLevelHigh, analysis.RiskLevel)
	assert.Contains(t, analysis.Conditions, "Possible hyperglycemia")
	assert.Contains(t, analysis.Conditions, "Possible hypercholesterolemia")
}

func TestAssessNoValues(t *testing.T) {
	analysis := Assess(nil)

	assert.Equal(t, "Analysis pending", analysis.OverallHealth)
	assert.Equal(t, model.RiskLevelLow, analysis.RiskLevel)
	assert.Equal(t, []string{"Please consult your doctor"}, analysis.Recommendations)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short text", Preview("short text"))

	long := make([]rune, 600)
	for i := range long {
		long[i] = 'a'
	}
	got := Preview(string(long))
	assert.Len(t, []rune(got), 503)
	assert.True(t, len(got) > 0 && got[len(got)-1] == '.')
}
