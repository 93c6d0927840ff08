package report

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodsight/bloodsight-api/internal/model"
	reportsvc "github.com/bloodsight/bloodsight-api/internal/service/report"
	"github.com/bloodsight/bloodsight-api/internal/storage"
	apperrors "github.com/bloodsight/bloodsight-api/pkg/errors"
	"github.com/bloodsight/bloodsight-api/pkg/logger"
)

type fakeReportRepo struct {
	mu      sync.Mutex
	reports []*model.Report
	values  map[uuid.UUID][]model.BloodValue
}

func (r *fakeReportRepo) Create(ctx context.Context, report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append([]*model.Report{report}, r.reports...)
	return nil
}

func (r *fakeReportRepo) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rpt := range r.reports {
		if rpt.ID == id {
			return rpt, nil
		}
	}
	return nil, apperrors.NotFound("report", nil)
}

func (r *fakeReportRepo) List(ctx context.Context, filters *model.ReportFilters) ([]*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Report
	for _, rpt := range r.reports {
		if rpt.UserID != nil && *rpt.UserID == filters.UserID {
			out = append(out, rpt)
		}
	}
	return out, nil
}

func (r *fakeReportRepo) SetAnalysis(ctx context.Context, id uuid.UUID, analysis *model.Analysis, analyzedAt time.Time) error {
	rpt, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rpt.Analysis = analysis
	rpt.AnalyzedAt = &analyzedAt
	return nil
}

func (r *fakeReportRepo) CreateValues(ctx context.Context, reportID uuid.UUID, values []model.BloodValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[reportID] = values
	return nil
}

func (r *fakeReportRepo) ListValues(ctx context.Context, reportID uuid.UUID) ([]model.BloodValue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[reportID], nil
}

type stubUserRepo struct{}

func (stubUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (stubUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (stubUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (stubUserRepo) Update(ctx context.Context, user *model.User) error { return nil }

func (stubUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (stubUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return nil
}

func (stubUserRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

// newTestRouter mounts the handler with an optional fixed identity on
// every route, mirroring how the auth middleware populates the context.
func newTestRouter(t *testing.T, userID *uuid.UUID) (*gin.Engine, *fakeReportRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)

	repo := &fakeReportRepo{values: make(map[uuid.UUID][]model.BloodValue)}
	svc := reportsvc.NewService(repo, stubUserRepo{}, store, nil, nil, logger.NewLogger(nil))
	h := NewHandler(svc)

	r := gin.New()
	group := r.Group("")
	if userID != nil {
		group.Use(func(c *gin.Context) {
			c.Set("user_id", *userID)
			c.Next()
		})
	}
	h.RegisterRoutes(group)
	h.RegisterProtectedRoutes(group)
	return r, repo
}

func uploadFile(t *testing.T, r *gin.Engine, field, filename, contentType string, data []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestUploadWithoutFilePart(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	assert.Equal(t, "No file part", parsed["error"])
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w, body := uploadFile(t, r, "file", "report.exe", "application/octet-stream", []byte("binary"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestUploadImageAnonymously(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w, body := uploadFile(t, r, "file", "scan.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "scan.png", body["filename"])
	assert.Equal(t, "No text found", body["extracted_text"])

	patient, ok := body["patient_info"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Guest", patient["name"])
}

func TestResultsRequireAuthentication(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResultsFallBackToDemo(t *testing.T) {
	userID := uuid.New()
	r, _ := newTestRouter(t, &userID)

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	result, ok := parsed["result"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "BloodReport-Demo.pdf", result["fileName"])

	patient, ok := result["patientInfo"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "John Doe", patient["name"])
}

func TestReportVisibilityScopedToOwner(t *testing.T) {
	// The middleware dereferences the identity per request, so swapping
	// the pointed-to value switches users against the same store.
	identity := uuid.New()
	r, _ := newTestRouter(t, &identity)

	w, _ := uploadFile(t, r, "file", "scan.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Reports []struct {
			ID string `json:"id"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Reports, 1)

	req = httptest.NewRequest(http.MethodGet, "/reports/"+listed.Reports[0].ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another user cannot fetch the owner's report by id.
	identity = uuid.New()
	req = httptest.NewRequest(http.MethodGet, "/reports/"+listed.Reports[0].ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnonymousReportNotServedByID(t *testing.T) {
	userID := uuid.New()
	r, repo := newTestRouter(t, &userID)

	// Seed a report with no owner, as an anonymous upload leaves it.
	anon := &model.Report{
		Base:       model.Base{ID: uuid.New()},
		Filename:   "scan.png",
		UploadedAt: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), anon))

	req := httptest.NewRequest(http.MethodGet, "/reports/"+anon.ID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
