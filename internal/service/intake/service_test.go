package intake

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodsight/bloodsight-api/internal/model"
)

func strPtr(s string) *string { return &s }

func TestNextRequiresPersonalInfo(t *testing.T) {
	svc := NewService()
	session := svc.Start(nil)
	assert.Equal(t, model.IntakeStepPersonal, session.CurrentStep)

	// Name alone is not enough to advance.
	_, err := svc.Next(session.ID, &model.UpdateIntakeStepRequest{Name: strPtr("Jane Roe")})
	assert.ErrorIs(t, err, ErrStepIncomplete)

	got, err := svc.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IntakeStepPersonal, got.CurrentStep)
	assert.Equal(t, "Jane Roe", got.Data.Name)

	advanced, err := svc.Next(session.ID, &model.UpdateIntakeStepRequest{Email: strPtr("jane@example.com")})
	require.NoError(t, err)
	assert.Equal(t, model.IntakeStepHistory, advanced.CurrentStep)
}

func TestNextRequiresMedicalHistory(t *testing.T) {
	svc := NewService()
	session := svc.Start(nil)

	_, err := svc.Next(session.ID, &model.UpdateIntakeStepRequest{
		Name:  strPtr("Jane Roe"),
		Email: strPtr("jane@example.com"),
	})
	require.NoError(t, err)

	_, err = svc.Next(session.ID, nil)
	assert.ErrorIs(t, err, ErrStepIncomplete)

	advanced, err := svc.Next(session.ID, &model.UpdateIntakeStepRequest{
		MedicalHistory: strPtr("No significant history"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.IntakeStepUpload, advanced.CurrentStep)

	_, err = svc.Next(session.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadyOnLastStep)
}

func TestBackNeverValidates(t *testing.T) {
	svc := NewService()
	session := svc.Start(nil)

	_, err := svc.Next(session.ID, &model.UpdateIntakeStepRequest{
		Name:  strPtr("Jane Roe"),
		Email: strPtr("jane@example.com"),
	})
	require.NoError(t, err)

	back, err := svc.Back(session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IntakeStepPersonal, back.CurrentStep)

	// Back on the first step stays put.
	back, err = svc.Back(session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IntakeStepPersonal, back.CurrentStep)
}

func TestCompleteRequiresFile(t *testing.T) {
	svc := NewService()
	session := svc.Start(nil)

	_, err := svc.Complete(session.ID)
	assert.ErrorIs(t, err, ErrNoFileSelected)

	_, err = svc.AttachFile(session.ID, "report.pdf", "/tmp/uploads/report.pdf")
	require.NoError(t, err)

	done, err := svc.Complete(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", done.FileName)

	// Completing alone keeps the session so a failed submit can retry.
	_, err = svc.Get(session.ID)
	require.NoError(t, err)

	svc.Finish(session.ID)
	_, err = svc.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetUnknownSession(t *testing.T) {
	svc := NewService()
	_, err := svc.Get(uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
