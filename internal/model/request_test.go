package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tutormatch/internal/model"
)

func TestRequestStatusIsTerminal(t *testing.T) {
	assert.False(t, model.RequestStatusPending.IsTerminal())
	assert.False(t, model.RequestStatusMatched.IsTerminal())

	assert.True(t, model.RequestStatusNotMatched.IsTerminal())
	assert.True(t, model.RequestStatusDone.IsTerminal())
	assert.True(t, model.RequestStatusCancelled.IsTerminal())
}

func TestRequestCancel(t *testing.T) {
	req := &model.Request{Status: model.RequestStatusPending}
	assert.True(t, req.CanBeCancelled())

	req.Cancel()
	assert.Equal(t, model.RequestStatusCancelled, req.Status)
	assert.False(t, req.CanBeCancelled())

	// Cancelled is terminal: a second cancel is a no-op.
	req.Cancel()
	assert.Equal(t, model.RequestStatusCancelled, req.Status)

	for _, status := range []model.RequestStatus{
		model.RequestStatusMatched,
		model.RequestStatusNotMatched,
		model.RequestStatusDone,
	} {
		req := &model.Request{Status: status}
		assert.False(t, req.CanBeCancelled())
		req.Cancel()
		assert.Equal(t, status, req.Status, "cancel must not transition out of %s", status)
	}
}

func TestRequestIsActive(t *testing.T) {
	assert.True(t, (&model.Request{Status: model.RequestStatusPending}).IsActive())
	assert.True(t, (&model.Request{Status: model.RequestStatusMatched}).IsActive())

	// Terminal statuses are never active.
	assert.False(t, (&model.Request{Status: model.RequestStatusCancelled}).IsActive())
	assert.False(t, (&model.Request{Status: model.RequestStatusDone}).IsActive())
	assert.False(t, (&model.Request{Status: model.RequestStatusNotMatched}).IsActive())

	// Archival excludes a request from activity regardless of status.
	assert.False(t, (&model.Request{Status: model.RequestStatusPending, Archived: true}).IsActive())
}

func TestRequestTypeValid(t *testing.T) {
	assert.True(t, model.RequestTypeTutor.Valid())
	assert.True(t, model.RequestTypeTutee.Valid())
	assert.False(t, model.RequestType("teacher").Valid())
	assert.False(t, model.RequestType("").Valid())
}
