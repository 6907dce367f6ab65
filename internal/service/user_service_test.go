package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutormatch/internal/apperror"
	"tutormatch/internal/model"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.users.Register(ctx, "  Alice@Example.com ", "Alice", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, model.UserRoleStudent, user.Role)
	assert.False(t, user.ProfileComplete())

	// Email is the identity and must be unique.
	_, err = f.users.Register(ctx, "alice@example.com", "Other Alice", "")
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "already exists")

	_, err = f.users.Register(ctx, "not-an-email", "Bob", "")
	assert.True(t, apperror.IsInvalidArgument(err))
	_, err = f.users.Register(ctx, "bob@example.com", "", "")
	assert.True(t, apperror.IsInvalidArgument(err))
	_, err = f.users.Register(ctx, "bob@example.com", "Bob", "headmaster")
	assert.True(t, apperror.IsInvalidArgument(err))
}

func TestSetYearGroupRecomputesExamTrack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.users.Register(ctx, "alice@example.com", "Alice", "")
	require.NoError(t, err)

	_, err = f.users.SetYearGroup(ctx, user.ID, 6)
	assert.True(t, apperror.IsInvalidArgument(err))

	got, err := f.users.SetYearGroup(ctx, user.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, model.ExamTrackKS3, got.ExamTrack)

	// The default follows the year group while it was never hand-picked.
	got, err = f.users.SetYearGroup(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, model.ExamTrackGCSE, got.ExamTrack)

	// A hand-picked track survives later year-group changes.
	got, err = f.users.UpdateProfile(ctx, user.ID, model.ExamTrackALevel, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ExamTrackALevel, got.ExamTrack)

	got, err = f.users.SetYearGroup(ctx, user.ID, 11)
	require.NoError(t, err)
	assert.Equal(t, model.ExamTrackALevel, got.ExamTrack)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	maths := f.subject(t, "MATHS", "Mathematics")

	user, err := f.users.Register(ctx, "alice@example.com", "Alice", "")
	require.NoError(t, err)

	_, err = f.users.UpdateProfile(ctx, user.ID, "BTEC", nil, nil)
	assert.True(t, apperror.IsInvalidArgument(err))

	_, err = f.users.UpdateProfile(ctx, user.ID, "", []int64{999}, nil)
	assert.True(t, apperror.IsNotFound(err))

	// Unknown timeslot codes are dropped, not rejected.
	got, err := f.users.UpdateProfile(ctx, user.ID, model.ExamTrackGCSE,
		[]int64{maths.ID}, []string{"MON_P1", "SAT_P1", "FRI_P7"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MON_P1", "FRI_P7"}, got.Timeslots)
	assert.Equal(t, []int64{maths.ID}, got.SubjectIDs)
	assert.False(t, got.ProfileComplete(), "year group still missing")

	got, err = f.users.SetYearGroup(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.True(t, got.ProfileComplete())
}

func TestDeleteUserCleansUpRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	maths := f.subject(t, "MATHS", "Mathematics")

	offer, err := f.requests.Create(ctx, alice.ID, model.RequestTypeTutor, maths.ID,
		[]string{"MON_P1"}, false, monday)
	require.NoError(t, err)
	ask, err := f.requests.Create(ctx, bob.ID, model.RequestTypeTutee, maths.ID,
		[]string{"MON_P1"}, false, monday)
	require.NoError(t, err)
	_, _, err = f.requests.MatchRequests(ctx, offer.ID, ask.ID)
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, bob.ID))

	_, err = f.users.Get(ctx, bob.ID)
	assert.True(t, apperror.IsNotFound(err))

	// Bob's requests are gone.
	bobRequests, err := f.requests.GetUserRequests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobRequests)

	// No surviving request points at the deleted user, and none is left
	// matched with a cleared partner.
	all, err := f.requests.FindAllActive(ctx)
	require.NoError(t, err)
	for _, req := range all {
		assert.Nil(t, req.MatchedPartnerID)
		assert.NotEqual(t, model.RequestStatusMatched, req.Status)
	}

	got, err := f.store.Requests().GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusNotMatched, got.Status)
	assert.Nil(t, got.MatchRef)

	// Alice heard about losing her partner.
	assert.Equal(t, []int64{alice.ID}, f.notes.lost)

	err = f.users.Delete(ctx, bob.ID)
	assert.True(t, apperror.IsNotFound(err))
}
