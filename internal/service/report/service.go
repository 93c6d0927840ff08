package report

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bloodsight/bloodsight-api/internal/analysis"
	"github.com/bloodsight/bloodsight-api/internal/model"
	"github.com/bloodsight/bloodsight-api/internal/repository"
	"github.com/bloodsight/bloodsight-api/internal/service/event"
	"github.com/bloodsight/bloodsight-api/internal/storage"
	apperrors "github.com/bloodsight/bloodsight-api/pkg/errors"
	"github.com/bloodsight/bloodsight-api/pkg/logger"
	"github.com/bloodsight/bloodsight-api/pkg/metrics"
)

// MaxUploadSize caps report uploads at 16 MiB, matching the multipart
// limit the router enforces.
const MaxUploadSize = 16 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// AllowedFile reports whether the filename carries an accepted report
// extension.
func AllowedFile(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Service runs the upload pipeline: validate, store, extract, parse,
// assess, persist, emit.
type Service struct {
	reportRepo repository.ReportRepository
	userRepo   repository.UserRepository
	store      storage.Store
	events     *event.EventService
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

func NewService(reportRepo repository.ReportRepository, userRepo repository.UserRepository,
	store storage.Store, events *event.EventService, metrics *metrics.Metrics, logger *logger.Logger) *Service {
	return &Service{
		reportRepo: reportRepo,
		userRepo:   userRepo,
		store:      store,
		events:     events,
		metrics:    metrics,
		logger:     logger,
	}
}

// Upload processes one report file end to end and returns the analysis
// the results page renders.
func (s *Service) Upload(ctx context.Context, userID *uuid.UUID, filename, contentType string, data []byte) (*model.AnalysisResult, error) {
	if filename == "" {
		return nil, apperrors.BadRequest("no selected file", nil)
	}
	if len(data) == 0 {
		return nil, apperrors.BadRequest("empty file", nil)
	}
	if len(data) > MaxUploadSize {
		return nil, apperrors.PayloadTooLarge("file exceeds the 16MB limit", nil)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !AllowedFile(filename) {
		return nil, apperrors.BadRequest("file type not allowed", nil)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}

	stored, path, err := s.store.Save(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	text, err := analysis.ExtractText(data, contentType)
	if err != nil {
		// A corrupt PDF still produces a report; analysis falls back.
		s.logger.Error(err, "text extraction failed", "filename", filename)
		text = ""
	}

	now := time.Now()
	rpt := &model.Report{
		Base: model.Base{
			ID: uuid.New(),
		},
		UserID:           userID,
		Filename:         stored,
		OriginalFilename: filename,
		FilePath:         path,
		ExtractedText:    text,
		UploadedAt:       now,
	}
	if err := s.reportRepo.Create(ctx, rpt); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	values := analysis.ParseValues(text)
	result := analysis.Assess(values)

	if err := s.reportRepo.SetAnalysis(ctx, rpt.ID, result, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}
	if len(values) > 0 {
		if err := s.reportRepo.CreateValues(ctx, rpt.ID, values); err != nil {
			return nil, fmt.Errorf("failed to persist blood values: %w", err)
		}
	}

	if s.metrics != nil {
		s.metrics.ReportsAnalyzed.WithLabelValues(string(result.RiskLevel)).Inc()
	}
	if s.events != nil {
		if err := s.events.Emit(ctx, model.EventReportAnalyzed, map[string]interface{}{
			"report_id":  rpt.ID,
			"user_id":    userID,
			"risk_level": result.RiskLevel,
		}); err != nil {
			s.logger.Error(err, "failed to emit report.analyzed event")
		}
	}

	preview := analysis.Preview(text)
	if preview == "" {
		preview = "No text found"
	}

	return &model.AnalysisResult{
		FileName:      filename,
		UploadedAt:    now,
		PatientInfo:   s.patientInfo(ctx, userID),
		ExtractedText: preview,
		Analysis:      result,
	}, nil
}

// LatestResult returns the caller's most recent analysis, or the demo
// payload when they have not uploaded anything yet.
func (s *Service) LatestResult(ctx context.Context, userID uuid.UUID) (*model.AnalysisResult, error) {
	reports, err := s.reportRepo.List(ctx, &model.ReportFilters{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	if len(reports) == 0 {
		return analysis.DemoResult(), nil
	}

	latest := reports[0]
	// A report whose analysis never landed gets the canned demo
	// payload, same as an empty account.
	if latest.Analysis == nil {
		return analysis.DemoResult(), nil
	}
	if len(latest.Analysis.BloodValues) == 0 {
		values, err := s.reportRepo.ListValues(ctx, latest.ID)
		if err == nil {
			latest.Analysis.BloodValues = values
		}
	}

	return &model.AnalysisResult{
		FileName:      latest.OriginalFilename,
		UploadedAt:    latest.UploadedAt,
		PatientInfo:   s.patientInfo(ctx, &userID),
		ExtractedText: analysis.Preview(latest.ExtractedText),
		Analysis:      latest.Analysis,
	}, nil
}

func (s *Service) ListReports(ctx context.Context, userID uuid.UUID) ([]*model.Report, error) {
	reports, err := s.reportRepo.List(ctx, &model.ReportFilters{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	rpt, err := s.reportRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rpt, nil
}

func (s *Service) patientInfo(ctx context.Context, userID *uuid.UUID) model.PatientInfo {
	info := model.PatientInfo{
		Name:           "Guest",
		MedicalHistory: "Not provided",
	}
	if userID == nil {
		return info
	}

	user, err := s.userRepo.Get(ctx, *userID)
	if err != nil {
		return info
	}
	info.Name = user.Name
	info.Email = user.Email
	if user.MedicalHistory != nil && *user.MedicalHistory != "" {
		info.MedicalHistory = *user.MedicalHistory
	}
	return info
}
