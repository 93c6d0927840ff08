package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodsight/bloodsight-api/internal/model"
)

func TestParseValues(t *testing.T) {
	text := `COMPLETE BLOOD COUNT
Hemoglobin: 13.2 g/dL (12.0-15.5)
WBC: 11.2 x10^3/uL (4.5-11.0)
Platelet Count: 280 x10^3/uL (150-450)
Glucose 95 mg/dL
Some narrative line that is not a value
TSH: 2.1 uIU/mL`

	values := ParseValues(text)
	require.Len(t, values, 4)

	byName := make(map[string]model.BloodValue)
	for _, v := range values {
		byName[v.Name] = v
	}

	hb := byName["Hemoglobin"]
	assert.Equal(t, "13.2", hb.Value)
	assert.Equal(t, "g/dL", hb.Unit)
	assert.Equal(t, "12.0-15.5", hb.NormalRange)
	assert.Equal(t, model.ValueStatusNormal, hb.Status)

	wbc := byName["White Blood Cells"]
	assert.Equal(t, "11.2", wbc.Value)
	assert.Equal(t, model.ValueStatusHigh, wbc.Status)

	plt := byName["Platelets"]
	assert.Equal(t, model.ValueStatusNormal, plt.Status)

	glu := byName["Glucose"]
	assert.Equal(t, "95", glu.Value)
	// No unit or range on the report line; catalogue defaults apply.
	assert.Equal(t, "mg/dL", glu.Unit)
	assert.Equal(t, model.ValueStatusNormal, glu.Status)
}

func TestParseValuesPrefersPrintedRange(t *testing.T) {
	// Lab prints a tighter range than the catalogue default.
	values := ParseValues("Hemoglobin: 13.0 g/dL (13.5-17.5)")
	require.Len(t, values, 1)
	assert.Equal(t, "13.5-17.5", values[0].NormalRange)
	assert.Equal(t, model.ValueStatusLow, values[0].Status)
}

func TestParseValuesDeduplicates(t *testing.T) {
	values := ParseValues("Hemoglobin: 13.2 g/dL\nHGB: 14.0 g/dL")
	require.Len(t, values, 1)
	assert.Equal(t, "13.2", values[0].Value)
}

func TestParseValuesEmptyText(t *testing.T) {
	assert.Empty(t, ParseValues(""))
	assert.Empty(t, ParseValues("no numbers here at all"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, model.ValueStatusLow, classify(3.9, 4.0, 5.6))
	assert.Equal(t, model.ValueStatusNormal, classify(4.0, 4.0, 5.6))
	assert.Equal(t, model.ValueStatusNormal, classify(5.6, 4.0, 5.6))
	assert.Equal(t, model.ValueStatusHigh, classify(5.7, 4.0, 5.6))
}

func TestLookupRangeAliases(t *testing.T) {
	for _, alias := range []string{"wbc", "WBC", "White Blood Cells", "white blood cell count"} {
		ref, ok := LookupRange(alias)
		require.True(t, ok, alias)
		assert.Equal(t, "White Blood Cells", ref.Name)
	}

	_, ok := LookupRange("definitely not a parameter")
	assert.False(t, ok)
}
