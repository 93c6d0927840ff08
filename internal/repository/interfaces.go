package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/bloodsight/bloodsight-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OTPRepository interface {
	Store(ctx context.Context, otp *model.PasswordResetOTP) error
	GetActive(ctx context.Context, email, code string) (*model.PasswordResetOTP, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	InvalidateForEmail(ctx context.Context, email string) error
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	Get(ctx context.Context, id uuid.UUID) (*model.Report, error)
	List(ctx context.Context, filters *model.ReportFilters) ([]*model.Report, error)
	SetAnalysis(ctx context.Context, id uuid.UUID, analysis *model.Analysis, analyzedAt time.Time) error
	CreateValues(ctx context.Context, reportID uuid.UUID, values []model.BloodValue) error
	ListValues(ctx context.Context, reportID uuid.UUID) ([]model.BloodValue, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	BeginTx(ctx context.Context) (*sql.Tx, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
