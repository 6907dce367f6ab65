package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutormatch/internal/model"
	"tutormatch/internal/repository/memory"
	"tutormatch/internal/service"
)

var monday = time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, store *memory.Store, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: email, Role: model.UserRoleStudent}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func seedSubject(t *testing.T, store *memory.Store, code, name string) *model.Subject {
	t.Helper()
	subject := &model.Subject{Code: code, Name: name}
	require.NoError(t, store.Subjects().Create(context.Background(), subject))
	return subject
}

func seedRequest(t *testing.T, store *memory.Store, ownerID, subjectID int64, typ model.RequestType) *model.Request {
	t.Helper()
	req := &model.Request{
		OwnerID:       ownerID,
		Type:          typ,
		SubjectID:     subjectID,
		Timeslots:     []string{"MON_P1"},
		WeekStartDate: monday,
		Status:        model.RequestStatusPending,
	}
	require.NoError(t, store.Requests().Create(context.Background(), req))
	return req
}

func TestUserStoreUniqueEmail(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "alice@example.com")

	err := store.Users().Create(context.Background(), &model.User{Email: "alice@example.com", Name: "Alice"})
	assert.ErrorIs(t, err, service.ErrEmailExists)
}

func TestSubjectStoreUniqueCode(t *testing.T) {
	store := memory.NewStore()
	seedSubject(t, store, "MATHS", "Mathematics")

	err := store.Subjects().Create(context.Background(), &model.Subject{Code: "MATHS", Name: "Maths again"})
	assert.ErrorIs(t, err, service.ErrSubjectExists)

	_, err = store.Subjects().GetByCode(context.Background(), "PHYS")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRequestStoreDuplicateActive(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := seedUser(t, store, "alice@example.com")
	subject := seedSubject(t, store, "MATHS", "Mathematics")

	seedRequest(t, store, user.ID, subject.ID, model.RequestTypeTutor)

	dup := &model.Request{
		OwnerID:       user.ID,
		Type:          model.RequestTypeTutor,
		SubjectID:     subject.ID,
		Timeslots:     []string{"TUE_P2"},
		WeekStartDate: monday,
		Status:        model.RequestStatusPending,
	}
	assert.ErrorIs(t, store.Requests().Create(ctx, dup), service.ErrDuplicateActive)

	// Opposite type for the same (user, subject) is fine.
	other := &model.Request{
		OwnerID:       user.ID,
		Type:          model.RequestTypeTutee,
		SubjectID:     subject.ID,
		Timeslots:     []string{"TUE_P2"},
		WeekStartDate: monday,
		Status:        model.RequestStatusPending,
	}
	assert.NoError(t, store.Requests().Create(ctx, other))
}

func TestRequestStoreArchivedDoesNotBlockCreate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := seedUser(t, store, "alice@example.com")
	subject := seedSubject(t, store, "MATHS", "Mathematics")

	first := seedRequest(t, store, user.ID, subject.ID, model.RequestTypeTutor)
	require.NoError(t, store.Requests().SetArchived(ctx, first.ID, true))

	// Archival is a visibility filter, so the triple is free again.
	second := seedRequest(t, store, user.ID, subject.ID, model.RequestTypeTutor)
	assert.NotEqual(t, first.ID, second.ID)

	active, err := store.Requests().FindAllActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)
}

func TestRequestStoreTransitionStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := seedUser(t, store, "alice@example.com")
	subject := seedSubject(t, store, "MATHS", "Mathematics")
	req := seedRequest(t, store, user.ID, subject.ID, model.RequestTypeTutor)

	err := store.Requests().TransitionStatus(ctx, req.ID, model.RequestStatusPending, model.RequestStatusCancelled)
	require.NoError(t, err)

	// The compare-and-set fails once the from-status no longer holds.
	err = store.Requests().TransitionStatus(ctx, req.ID, model.RequestStatusPending, model.RequestStatusNotMatched)
	assert.ErrorIs(t, err, service.ErrStatusConflict)

	err = store.Requests().TransitionStatus(ctx, 999, model.RequestStatusPending, model.RequestStatusCancelled)
	assert.ErrorIs(t, err, service.ErrNotFound)

	got, err := store.Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCancelled, got.Status)
}

func TestRequestStoreMatchAndComplete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	subject := seedSubject(t, store, "MATHS", "Mathematics")

	offer := seedRequest(t, store, alice.ID, subject.ID, model.RequestTypeTutor)
	ask := seedRequest(t, store, bob.ID, subject.ID, model.RequestTypeTutee)

	ref := uuid.New()
	require.NoError(t, store.Requests().Match(ctx, offer.ID, ask.ID, ref))

	gotOffer, err := store.Requests().GetByID(ctx, offer.ID)
	require.NoError(t, err)
	gotAsk, err := store.Requests().GetByID(ctx, ask.ID)
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusMatched, gotOffer.Status)
	assert.Equal(t, model.RequestStatusMatched, gotAsk.Status)
	require.NotNil(t, gotOffer.MatchedPartnerID)
	require.NotNil(t, gotAsk.MatchedPartnerID)
	assert.Equal(t, bob.ID, *gotOffer.MatchedPartnerID)
	assert.Equal(t, alice.ID, *gotAsk.MatchedPartnerID)
	require.NotNil(t, gotOffer.MatchRef)
	require.NotNil(t, gotAsk.MatchRef)
	assert.Equal(t, ref, *gotOffer.MatchRef)
	assert.Equal(t, ref, *gotAsk.MatchRef)

	// A matched request cannot be matched again.
	err = store.Requests().Match(ctx, offer.ID, ask.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrStatusConflict)

	require.NoError(t, store.Requests().CompleteMatch(ctx, ref))
	gotOffer, err = store.Requests().GetByID(ctx, offer.ID)
	require.NoError(t, err)
	gotAsk, err = store.Requests().GetByID(ctx, ask.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusDone, gotOffer.Status)
	assert.Equal(t, model.RequestStatusDone, gotAsk.Status)

	assert.ErrorIs(t, store.Requests().CompleteMatch(ctx, ref), service.ErrStatusConflict)
}

func TestUserStoreDeleteCascade(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	subject := seedSubject(t, store, "MATHS", "Mathematics")

	offer := seedRequest(t, store, alice.ID, subject.ID, model.RequestTypeTutor)
	ask := seedRequest(t, store, bob.ID, subject.ID, model.RequestTypeTutee)
	require.NoError(t, store.Requests().Match(ctx, offer.ID, ask.ID, uuid.New()))

	released, err := store.Users().Delete(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, offer.ID, released[0].ID)

	// Bob's requests are gone.
	bobRequests, err := store.Requests().GetByOwner(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobRequests)

	// Alice's request no longer points at a deleted user and is no
	// longer matched.
	got, err := store.Requests().GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Nil(t, got.MatchedPartnerID)
	assert.Nil(t, got.MatchRef)
	assert.Equal(t, model.RequestStatusNotMatched, got.Status)

	_, err = store.Users().Delete(ctx, bob.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUserStoreDeleteKeepsCompletedHistory(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	subject := seedSubject(t, store, "MATHS", "Mathematics")

	offer := seedRequest(t, store, alice.ID, subject.ID, model.RequestTypeTutor)
	ask := seedRequest(t, store, bob.ID, subject.ID, model.RequestTypeTutee)

	ref := uuid.New()
	require.NoError(t, store.Requests().Match(ctx, offer.ID, ask.ID, ref))
	require.NoError(t, store.Requests().CompleteMatch(ctx, ref))

	released, err := store.Users().Delete(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, released)

	// The completed request loses the dangling reference but keeps its
	// terminal status.
	got, err := store.Requests().GetByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusDone, got.Status)
	assert.Nil(t, got.MatchedPartnerID)
	assert.Nil(t, got.MatchRef)
}

func TestRequestStoreGetByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	current := monday
	store.SetClock(func() time.Time {
		current = current.Add(time.Minute)
		return current
	})

	user := seedUser(t, store, "alice@example.com")
	maths := seedSubject(t, store, "MATHS", "Mathematics")
	phys := seedSubject(t, store, "PHYS", "Physics")

	first := seedRequest(t, store, user.ID, maths.ID, model.RequestTypeTutor)
	second := seedRequest(t, store, user.ID, phys.ID, model.RequestTypeTutor)

	got, err := store.Requests().GetByOwner(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestRequestStoreArchiveExpired(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := seedUser(t, store, "alice@example.com")
	maths := seedSubject(t, store, "MATHS", "Mathematics")
	phys := seedSubject(t, store, "PHYS", "Physics")

	expired := seedRequest(t, store, user.ID, maths.ID, model.RequestTypeTutor)

	recurring := &model.Request{
		OwnerID:       user.ID,
		Type:          model.RequestTypeTutor,
		SubjectID:     phys.ID,
		Timeslots:     []string{"MON_P1"},
		WeekStartDate: monday,
		Recurring:     true,
		Status:        model.RequestStatusPending,
	}
	require.NoError(t, store.Requests().Create(ctx, recurring))

	count, err := store.Requests().ArchiveExpired(ctx, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := store.Requests().GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived)

	// Recurring requests never expire.
	got, err = store.Requests().GetByID(ctx, recurring.ID)
	require.NoError(t, err)
	assert.False(t, got.Archived)

	// A second sweep finds nothing.
	count, err = store.Requests().ArchiveExpired(ctx, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Zero(t, count)
}
