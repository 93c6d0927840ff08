package model

import (
	"time"

	"github.com/google/uuid"
)

// Intake wizard steps, in order: personal info, medical history, upload.
const (
	IntakeStepPersonal = 1
	IntakeStepHistory  = 2
	IntakeStepUpload   = 3
)

// IntakeSession is the server-side state of the three-step report
// intake sequence. Forward transitions are guarded per step; the
// terminal submit requires a selected file.
type IntakeSession struct {
	ID          uuid.UUID  `json:"id"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	CurrentStep int        `json:"current_step"`
	Data        IntakeData `json:"data"`
	FilePath    string     `json:"-"`
	FileName    string     `json:"file_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IntakeData collects the wizard's form fields across steps.
type IntakeData struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone,omitempty"`
	DateOfBirth        string `json:"date_of_birth,omitempty"`
	MedicalHistory     string `json:"medical_history"`
	CurrentMedications string `json:"current_medications,omitempty"`
	Symptoms           string `json:"symptoms,omitempty"`
}

// UpdateIntakeStepRequest carries the fields submitted for one step.
type UpdateIntakeStepRequest struct {
	Name               *string `json:"name"`
	Email              *string `json:"email" binding:"omitempty,email"`
	Phone              *string `json:"phone"`
	DateOfBirth        *string `json:"date_of_birth"`
	MedicalHistory     *string `json:"medical_history"`
	CurrentMedications *string `json:"current_medications"`
	Symptoms           *string `json:"symptoms"`
}
