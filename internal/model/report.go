package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Blood value classification against the reference range
type ValueStatus string

const (
	ValueStatusNormal ValueStatus = "normal"
	ValueStatusHigh   ValueStatus = "high"
	ValueStatusLow    ValueStatus = "low"
)

// Risk tiers for the analysis summary
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// Report represents one uploaded blood report and its analysis outcome.
type Report struct {
	Base
	UserID           *uuid.UUID      `db:"user_id" json:"user_id,omitempty"`
	Filename         string          `db:"filename" json:"filename"`
	OriginalFilename string          `db:"original_filename" json:"original_filename"`
	FilePath         string          `db:"file_path" json:"-"`
	ExtractedText    string          `db:"extracted_text" json:"extracted_text"`
	AnalysisJSON     json.RawMessage `db:"analysis_result" json:"-"`
	Analysis         *Analysis       `db:"-" json:"analysis,omitempty"`
	UploadedAt       time.Time       `db:"uploaded_at" json:"uploaded_at"`
	AnalyzedAt       *time.Time      `db:"analyzed_at" json:"analyzed_at,omitempty"`
}

// BloodValue is a single named panel value pulled out of the report text.
type BloodValue struct {
	ID          uuid.UUID   `db:"id" json:"-"`
	ReportID    uuid.UUID   `db:"report_id" json:"-"`
	Name        string      `db:"parameter_name" json:"name"`
	Value       string      `db:"value" json:"value"`
	Unit        string      `db:"unit" json:"unit"`
	NormalRange string      `db:"normal_range" json:"normalRange"`
	Status      ValueStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"-"`
}

// PatientInfo is the snapshot echoed back with an analysis result.
type PatientInfo struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	MedicalHistory string `json:"medicalHistory"`
}

// Analysis is the derived health assessment for one report.
type Analysis struct {
	OverallHealth   string       `json:"overallHealth"`
	KeyFindings     []string     `json:"keyFindings"`
	Recommendations []string     `json:"recommendations"`
	RiskLevel       RiskLevel    `json:"riskLevel"`
	Conditions      []string     `json:"conditions,omitempty"`
	AbnormalValues  []string     `json:"abnormalValues,omitempty"`
	BloodValues     []BloodValue `json:"bloodValues"`
}

// AnalysisResult is the wire shape returned by the upload endpoint and
// the results pages: file metadata, patient snapshot, extracted text
// preview and the derived analysis.
type AnalysisResult struct {
	FileName      string      `json:"fileName"`
	UploadedAt    time.Time   `json:"uploadedAt"`
	PatientInfo   PatientInfo `json:"patientInfo"`
	ExtractedText string      `json:"extractedText"`
	Analysis      *Analysis   `json:"analysis"`
}

type ReportFilters struct {
	UserID    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}
