package intake

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloodsight/bloodsight-api/internal/model"
	"github.com/bloodsight/bloodsight-api/internal/service/intake"
	"github.com/bloodsight/bloodsight-api/internal/service/report"
	"github.com/bloodsight/bloodsight-api/internal/storage"
	"github.com/bloodsight/bloodsight-api/pkg/httputil"
)

// Handler drives the three-step intake wizard. The terminal submit
// hands the attached file to the report pipeline.
type Handler struct {
	svc       *intake.Service
	reportSvc *report.Service
	store     storage.Store
}

func NewHandler(svc *intake.Service, reportSvc *report.Service, store storage.Store) *Handler {
	return &Handler{svc: svc, reportSvc: reportSvc, store: store}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/intake")
	{
		g.POST("", h.Start)
		g.GET("/:id", h.Get)
		g.PUT("/:id/steps/:step", h.SubmitStep)
		g.POST("/:id/back", h.Back)
		g.POST("/:id/file", h.AttachFile)
		g.POST("/:id/submit", h.Submit)
	}
}

func (h *Handler) Start(c *gin.Context) {
	session := h.svc.Start(optionalUserID(c))
	httputil.Created(c, gin.H{"session": session})
}

func (h *Handler) Get(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	httputil.OK(c, gin.H{"session": session})
}

// SubmitStep saves the fields for one step. Submitting the session's
// current step also advances it; an earlier step just updates fields.
func (h *Handler) SubmitStep(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	step, err := strconv.Atoi(c.Param("step"))
	if err != nil || step < model.IntakeStepPersonal || step > model.IntakeStepUpload {
		httputil.Fail(c, http.StatusBadRequest, "Invalid step")
		return
	}

	var req model.UpdateIntakeStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	current, err := h.svc.Get(id)
	if err != nil {
		httputil.Fail(c, http.StatusNotFound, err.Error())
		return
	}

	if step != current.CurrentStep {
		session, err := h.svc.Update(id, &req)
		if err != nil {
			httputil.Fail(c, http.StatusNotFound, err.Error())
			return
		}
		httputil.OK(c, gin.H{"session": session})
		return
	}

	session, err := h.svc.Next(id, &req)
	if err != nil {
		var stepErr *intake.StepIncompleteError
		switch {
		case errors.As(err, &stepErr):
			httputil.Fail(c, http.StatusBadRequest,
				"Please fill in the required fields before continuing: "+strings.Join(stepErr.Missing, ", "))
		case errors.Is(err, intake.ErrAlreadyOnLastStep):
			httputil.Fail(c, http.StatusBadRequest, "Already on the last step")
		default:
			httputil.Fail(c, http.StatusNotFound, err.Error())
		}
		return
	}
	httputil.OK(c, gin.H{"session": session})
}

func (h *Handler) Back(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := h.svc.Back(id)
	if err != nil {
		httputil.Fail(c, http.StatusNotFound, err.Error())
		return
	}
	httputil.OK(c, gin.H{"session": session})
}

func (h *Handler) AttachFile(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "No file part")
		return
	}
	if !report.AllowedFile(fileHeader.Filename) {
		httputil.Fail(c, http.StatusBadRequest, "File type not allowed")
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

	_, path, err := h.store.Save(fileHeader.Filename, data)
	if err != nil {
		httputil.Fail(c, http.StatusInternalServerError, "Failed to store file")
		return
	}

	session, err := h.svc.AttachFile(id, fileHeader.Filename, path)
	if err != nil {
		httputil.Fail(c, http.StatusNotFound, err.Error())
		return
	}
	httputil.OK(c, gin.H{"session": session})
}

// Submit runs the analysis on the attached file. The session is kept
// until the pipeline succeeds so a failed submit can be retried.
func (h *Handler) Submit(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := h.svc.Complete(id)
	if err != nil {
		switch {
		case errors.Is(err, intake.ErrNoFileSelected):
			httputil.Fail(c, http.StatusBadRequest, "Please select a report file before submitting")
		default:
			httputil.Fail(c, http.StatusNotFound, err.Error())
		}
		return
	}

	data, err := h.store.Load(session.FilePath)
	if err != nil {
		httputil.Fail(c, http.StatusInternalServerError, "Failed to read stored file")
		return
	}

	result, err := h.reportSvc.Upload(c.Request.Context(), session.UserID, session.FileName, "", data)
	if err != nil {
		httputil.FailErr(c, err)
		return
	}
	h.svc.Finish(id)

	httputil.OK(c, gin.H{
		"session":  session,
		"analysis": result.Analysis,
		"filename": result.FileName,
	})
}

func (h *Handler) session(c *gin.Context) (*model.IntakeSession, bool) {
	id, ok := sessionID(c)
	if !ok {
		return nil, false
	}
	session, err := h.svc.Get(id)
	if err != nil {
		httputil.Fail(c, http.StatusNotFound, err.Error())
		return nil, false
	}
	return session, true
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.Fail(c, http.StatusBadRequest, "Invalid session id")
		return uuid.Nil, false
	}
	return id, true
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
