package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tutormatch/internal/model"
)

func TestProfileComplete(t *testing.T) {
	user := &model.User{}
	assert.False(t, user.ProfileComplete())

	user.YearGroup = 10
	assert.False(t, user.ProfileComplete())

	user.ExamTrack = model.ExamTrackGCSE
	assert.False(t, user.ProfileComplete())

	user.SubjectIDs = []int64{1}
	assert.False(t, user.ProfileComplete())

	user.Timeslots = []string{"MON_P1"}
	assert.True(t, user.ProfileComplete())
}

func TestDefaultExamTrack(t *testing.T) {
	assert.Equal(t, model.ExamTrack(""), model.DefaultExamTrack(0))
	assert.Equal(t, model.ExamTrack(""), model.DefaultExamTrack(6))
	assert.Equal(t, model.ExamTrackKS3, model.DefaultExamTrack(7))
	assert.Equal(t, model.ExamTrackKS3, model.DefaultExamTrack(9))
	assert.Equal(t, model.ExamTrackGCSE, model.DefaultExamTrack(10))
	assert.Equal(t, model.ExamTrackGCSE, model.DefaultExamTrack(11))
	assert.Equal(t, model.ExamTrackALevel, model.DefaultExamTrack(12))
	assert.Equal(t, model.ExamTrackALevel, model.DefaultExamTrack(13))
	assert.Equal(t, model.ExamTrack(""), model.DefaultExamTrack(14))
}
