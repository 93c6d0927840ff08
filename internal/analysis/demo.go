package analysis

import (
	"time"

	"github.com/bloodsight/bloodsight-api/internal/model"
)

// DemoResult is the canned analysis served when a caller has no reports
// of their own yet. It mirrors a realistic normal-ish panel so the
// results page has something meaningful to render.
func DemoResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		FileName:   "BloodReport-Demo.pdf",
		UploadedAt: time.Now(),
		PatientInfo: model.PatientInfo{
			Name:           "John Doe",
			Email:          "john.doe@example.com",
			MedicalHistory: "No significant medical history",
		},
		ExtractedText: "Sample extracted text from blood report...",
		Analysis: &model.Analysis{
			OverallHealth: "Generally Normal",
			KeyFindings: []string{
				"Hemoglobin levels within normal range (13.2 g/dL)",
				"White blood cell count slightly elevated (11,200/μL)",
				"Platelet count normal (280,000/μL)",
				"Blood glucose levels normal (95 mg/dL)",
			},
			Recommendations: []string{
				"Monitor white blood cell count in 2-4 weeks",
				"Maintain current diet and exercise routine",
				"Consider consultation with hematologist if WBC remains elevated",
				"Regular follow-up in 3 months",
			},
			RiskLevel: model.RiskLevelLow,
			Conditions: []string{
				"Slightly elevated white blood cell count",
			},
			AbnormalValues: []string{
				"White Blood Cells: 11.2 x10³/μL (Normal: 4.5-11.0)",
			},
			BloodValues: []model.BloodValue{
				{
					Name:        "Hemoglobin",
					Value:       "13.2",
					Unit:        "g/dL",
					NormalRange: "12.0-15.5",
					Status:      model.ValueStatusNormal,
				},
				{
					Name:        "White Blood Cells",
					Value:       "11.2",
					Unit:        "x10³/μL",
					NormalRange: "4.5-11.0",
					Status:      model.ValueStatusHigh,
				},
				{
					Name:        "Platelets",
					Value:       "280",
					Unit:        "x10³/μL",
					NormalRange: "150-450",
					Status:      model.ValueStatusNormal,
				},
			},
		},
	}
}
