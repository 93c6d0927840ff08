package report

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloodsight/bloodsight-api/internal/service/report"
	"github.com/bloodsight/bloodsight-api/pkg/httputil"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the upload endpoint; auth is optional there so
// the wizard works before an account exists.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload", h.Upload)
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/results", h.LatestResult)
	r.GET("/reports", h.ListReports)
	r.GET("/reports/:id", h.GetReport)
}

func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "No file part")
		return
	}
	if fileHeader.Filename == "" {
		httputil.Fail(c, http.StatusBadRequest, "No selected file")
		return
	}
	if fileHeader.Size > report.MaxUploadSize {
		httputil.Fail(c, http.StatusRequestEntityTooLarge, "File exceeds the 16MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Failed to read upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, report.MaxUploadSize+1))
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Failed to read upload")
		return
	}

	userID := optionalUserID(c)
	result, err := h.svc.Upload(c.Request.Context(), userID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		httputil.FailErr(c, err)
		return
	}

	httputil.OK(c, gin.H{
		"filename":       result.FileName,
		"extracted_text": result.ExtractedText,
		"analysis":       result.Analysis,
		"uploaded_at":    result.UploadedAt,
		"patient_info":   result.PatientInfo,
	})
}

func (h *Handler) LatestResult(c *gin.Context) {
	userID := optionalUserID(c)
	if userID == nil {
		httputil.Fail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	result, err := h.svc.LatestResult(c.Request.Context(), *userID)
	if err != nil {
		httputil.Fail(c, http.StatusInternalServerError, "Failed to load results")
		return
	}
	httputil.OK(c, gin.H{"result": result})
}

func (h *Handler) ListReports(c *gin.Context) {
	userID := optionalUserID(c)
	if userID == nil {
		httputil.Fail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	reports, err := h.svc.ListReports(c.Request.Context(), *userID)
	if err != nil {
		httputil.Fail(c, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	httputil.OK(c, gin.H{"reports": reports})
}

func (h *Handler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid report id")
		return
	}

	rpt, err := h.svc.GetReport(c.Request.Context(), id)
	if err != nil {
		httputil.Fail(c, http.StatusNotFound, "Report not found")
		return
	}

	// Reports are scoped to their owner. Anonymous uploads have no
	// owner and are never served back.
	userID := optionalUserID(c)
	if rpt.UserID == nil || userID == nil || *rpt.UserID != *userID {
		httputil.Fail(c, http.StatusNotFound, "Report not found")
		return
	}
	httputil.OK(c, gin.H{"report": rpt})
}

func optionalUserID(c *gin.Context) *uuid.UUID {
	v, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return nil
	}
	return &id
}
