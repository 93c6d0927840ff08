package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bloodsight/bloodsight-api/internal/model"
	"github.com/bloodsight/bloodsight-api/internal/repository"
)

type reportRepository struct {
	BaseRepository
}

func NewReportRepository(base BaseRepository) repository.ReportRepository {
	return &reportRepository{base}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	query := `
		INSERT INTO reports (
			id, user_id, filename, original_filename, file_path,
			extracted_text, uploaded_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now
	if report.UploadedAt.IsZero() {
		report.UploadedAt = now
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			report.ID,
			report.UserID,
			report.Filename,
			report.OriginalFilename,
			report.FilePath,
			report.ExtractedText,
			report.UploadedAt,
			report.CreatedAt,
			report.UpdatedAt,
		)
		return err
	})
}

func (r *reportRepository) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	query := `
		SELECT * FROM reports
		WHERE id = $1 AND deleted_at IS NULL
	`

	var report model.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report not found")
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	if len(report.AnalysisJSON) > 0 {
		var analysis model.Analysis
		if err := json.Unmarshal(report.AnalysisJSON, &analysis); err == nil {
			report.Analysis = &analysis
		}
	}

	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, filters *model.ReportFilters) ([]*model.Report, error) {
	query := `
		SELECT * FROM reports
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}

	if filters.UserID != uuid.Nil {
		query += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, filters.UserID)
	}

	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND uploaded_at >= $%d", len(args)+1)
		args = append(args, filters.StartDate)
	}

	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND uploaded_at <= $%d", len(args)+1)
		args = append(args, filters.EndDate)
	}

	query += " ORDER BY uploaded_at DESC"

	var reports []*model.Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	for _, report := range reports {
		if len(report.AnalysisJSON) > 0 {
			var analysis model.Analysis
			if err := json.Unmarshal(report.AnalysisJSON, &analysis); err == nil {
				report.Analysis = &analysis
			}
		}
	}

	return reports, nil
}

func (r *reportRepository) SetAnalysis(ctx context.Context, id uuid.UUID, analysis *model.Analysis, analyzedAt time.Time) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	query := `
		UPDATE reports
		SET analysis_result = $1, analyzed_at = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, payload, analyzedAt, id)
	if err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("report not found")
	}

	return nil
}

func (r *reportRepository) CreateValues(ctx context.Context, reportID uuid.UUID, values []model.BloodValue) error {
	if len(values) == 0 {
		return nil
	}

	query := `
		INSERT INTO blood_values (
			id, report_id, parameter_name, value, unit, normal_range, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i := range values {
			values[i].ID = uuid.New()
			values[i].ReportID = reportID
			values[i].CreatedAt = time.Now()
			_, err := tx.ExecContext(ctx, query,
				values[i].ID,
				values[i].ReportID,
				values[i].Name,
				values[i].Value,
				values[i].Unit,
				values[i].NormalRange,
				values[i].Status,
				values[i].CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert blood value %q: %w", values[i].Name, err)
			}
		}
		return nil
	})
}

func (r *reportRepository) ListValues(ctx context.Context, reportID uuid.UUID) ([]model.BloodValue, error) {
	query := `
		SELECT id, report_id, parameter_name, value, unit, normal_range, status, created_at
		FROM blood_values
		WHERE report_id = $1
		ORDER BY parameter_name
	`

	var values []model.BloodValue
	if err := r.db.SelectContext(ctx, &values, query, reportID); err != nil {
		return nil, fmt.Errorf("failed to list blood values: %w", err)
	}

	return values, nil
}
