package intake

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/bloodsight/bloodsight-api/internal/model"
)

const (
	sessionTTL      = 30 * time.Minute
	cleanupInterval = 10 * time.Minute
)

var (
	ErrSessionNotFound   = errors.New("intake session not found or expired")
	ErrStepIncomplete    = errors.New("current step is incomplete")
	ErrNoFileSelected    = errors.New("no report file selected")
	ErrAlreadyOnLastStep = errors.New("already on the last step")
)

// StepIncompleteError names the fields still required to advance. It
// matches ErrStepIncomplete under errors.Is.
type StepIncompleteError struct {
	Missing []string
}

func (e *StepIncompleteError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

func (e *StepIncompleteError) Is(target error) bool { return target == ErrStepIncomplete }

// Service holds in-progress intake sessions in a TTL cache. Sessions
// are transient: an abandoned wizard simply ages out.
type Service struct {
	sessions *cache.Cache
}

func NewService() *Service {
	return &Service{
		sessions: cache.New(sessionTTL, cleanupInterval),
	}
}

// Start opens a fresh session at the personal-info step.
func (s *Service) Start(userID *uuid.UUID) *model.IntakeSession {
	now := time.Now()
	session := &model.IntakeSession{
		ID:          uuid.New(),
		UserID:      userID,
		CurrentStep: model.IntakeStepPersonal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.sessions.Set(session.ID.String(), session, cache.DefaultExpiration)
	return session
}

func (s *Service) Get(id uuid.UUID) (*model.IntakeSession, error) {
	v, found := s.sessions.Get(id.String())
	if !found {
		return nil, ErrSessionNotFound
	}
	return v.(*model.IntakeSession), nil
}

// Update merges submitted fields into the session without moving it.
func (s *Service) Update(id uuid.UUID, req *model.UpdateIntakeStepRequest) (*model.IntakeSession, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	apply(&session.Data, req)
	s.touch(session)
	return session, nil
}

// Next advances the session one step, refusing when the current step's
// required fields are missing.
func (s *Service) Next(id uuid.UUID, req *model.UpdateIntakeStepRequest) (*model.IntakeSession, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if req != nil {
		apply(&session.Data, req)
	}

	var missing []string
	switch session.CurrentStep {
	case model.IntakeStepPersonal:
		if session.Data.Name == "" {
			missing = append(missing, "name")
		}
		if session.Data.Email == "" {
			missing = append(missing, "email")
		}
	case model.IntakeStepHistory:
		if session.Data.MedicalHistory == "" {
			missing = append(missing, "medical_history")
		}
	case model.IntakeStepUpload:
		return nil, ErrAlreadyOnLastStep
	}
	if len(missing) > 0 {
		s.touch(session)
		return nil, &StepIncompleteError{Missing: missing}
	}

	session.CurrentStep++
	s.touch(session)
	return session, nil
}

// Back moves one step toward the start. It never validates; users can
// always revisit earlier answers.
func (s *Service) Back(id uuid.UUID) (*model.IntakeSession, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.CurrentStep > model.IntakeStepPersonal {
		session.CurrentStep--
	}
	s.touch(session)
	return session, nil
}

// AttachFile records the stored upload against the session.
func (s *Service) AttachFile(id uuid.UUID, filename, path string) (*model.IntakeSession, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	session.FileName = filename
	session.FilePath = path
	s.touch(session)
	return session, nil
}

// Complete validates the session for submission and returns its final
// state. The terminal step refuses to submit without a file. The
// session stays cached so a failed submit can be retried; Finish
// removes it once the pipeline has succeeded.
func (s *Service) Complete(id uuid.UUID) (*model.IntakeSession, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.FilePath == "" {
		return nil, ErrNoFileSelected
	}
	return session, nil
}

// Finish discards a submitted session.
func (s *Service) Finish(id uuid.UUID) {
	s.sessions.Delete(id.String())
}

func (s *Service) touch(session *model.IntakeSession) {
	session.UpdatedAt = time.Now()
	s.sessions.Set(session.ID.String(), session, cache.DefaultExpiration)
}

func apply(data *model.IntakeData, req *model.UpdateIntakeStepRequest) {
	if req.Name != nil {
		data.Name = *req.Name
	}
	if req.Email != nil {
		data.Email = *req.Email
	}
	if req.Phone != nil {
		data.Phone = *req.Phone
	}
	if req.DateOfBirth != nil {
		data.DateOfBirth = *req.DateOfBirth
	}
	if req.MedicalHistory != nil {
		data.MedicalHistory = *req.MedicalHistory
	}
	if req.CurrentMedications != nil {
		data.CurrentMedications = *req.CurrentMedications
	}
	if req.Symptoms != nil {
		data.Symptoms = *req.Symptoms
	}
}
