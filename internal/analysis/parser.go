package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bloodsight/bloodsight-api/internal/model"
)

// valueLine matches the common "<label> : <number> <unit> (<range>)"
// shapes lab reports print, with separator, unit and range optional:
//
//	Hemoglobin: 13.2 g/dL (12.0-15.5)
//	WBC  11.2
//	Platelet Count - 280 x10^3/uL 150 - 450
var valueLine = regexp.MustCompile(`(?i)^\s*([a-z][a-z0-9 ./^()-]*?)\s*[:\-]?\s+(\d+(?:\.\d+)?)\s*([^\s(]*)\s*(?:\(?\s*(\d+(?:\.\d+)?)\s*[-–]\s*(\d+(?:\.\d+)?)\s*\)?)?\s*$`)

// ParseValues scans extracted report text line by line and returns the
// recognizable blood-panel values, classified against the reference
// catalogue. Lines whose label is not in the catalogue are skipped.
func ParseValues(text string) []model.BloodValue {
	var values []model.BloodValue
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		m := valueLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		ref, ok := LookupRange(m[1])
		if !ok {
			continue
		}
		if seen[ref.Name] {
			continue
		}

		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}

		min, max := ref.Min, ref.Max
		rangeLabel := ref.Label()
		if m[4] != "" && m[5] != "" {
			// Prefer the range printed on the report itself.
			lo, errLo := strconv.ParseFloat(m[4], 64)
			hi, errHi := strconv.ParseFloat(m[5], 64)
			if errLo == nil && errHi == nil && lo < hi {
				min, max = lo, hi
				rangeLabel = m[4] + "-" + m[5]
			}
		}

		unit := strings.TrimSpace(m[3])
		if unit == "" {
			unit = ref.Unit
		}

		seen[ref.Name] = true
		values = append(values, model.BloodValue{
			Name:        ref.Name,
			Value:       m[2],
			Unit:        unit,
			NormalRange: rangeLabel,
			Status:      classify(value, min, max),
		})
	}

	return values
}

func classify(value, min, max float64) model.ValueStatus {
	switch {
	case value < min:
		return model.ValueStatusLow
	case value > max:
		return model.ValueStatusHigh
	default:
		return model.ValueStatusNormal
	}
}
