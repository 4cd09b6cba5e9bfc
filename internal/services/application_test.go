package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"fitforge/internal/apperrors"
	"fitforge/internal/events"
	"fitforge/internal/models"
)

func newApplications(f *fixture) *ApplicationService {
	return NewApplicationService(f.db, f.v, f.bus, f.cache)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newApplications(f)
	member := f.user(t, "m@x.io", models.RoleMember)
	trainer := f.user(t, "t@x.io", models.RoleTrainer)

	app, err := svc.Submit(ctx, actorOf(member), validDetails())
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Equal(t, member.ID, app.UserID)
	assert.Equal(t, "Jane Doe", app.ApplicationDetails.Data().FullName)

	_, err = svc.Submit(ctx, actorOf(member), validDetails())
	assert.ErrorIs(t, err, apperrors.ErrConflict, "second pending application")

	_, err = svc.Submit(ctx, actorOf(trainer), validDetails())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	bad := validDetails()
	bad.Age = 15
	bad.AvailableTime = "mornings"
	other := f.user(t, "o@x.io", models.RoleMember)
	_, err = svc.Submit(ctx, actorOf(other), bad)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestApprove_PromotesAtomically(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newApplications(f)
	approved := f.subscribe(t, events.TopicTrainerApproved)

	member := f.user(t, "m@x.io", models.RoleMember)
	app, err := svc.Submit(ctx, actorOf(member), validDetails())
	require.NoError(t, err)

	trainer, err := svc.Approve(ctx, app.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, member.ID, trainer.UserID)
	assert.Equal(t, []string{"Yoga", "Pilates"}, []string(trainer.Expertise))

	var user models.User
	require.NoError(t, f.db.First(&user, member.ID).Error)
	assert.Equal(t, models.RoleTrainer, user.Role)

	_, err = svc.Get(ctx, app.ID, admin)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Approve(ctx, app.ID, admin)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "approving twice")

	var got events.TrainerApproved
	require.NoError(t, json.Unmarshal(waitFor(t, approved).Payload, &got))
	assert.Equal(t, app.ID, got.ApplicationID)
	assert.Equal(t, member.ID, got.UserID)
}

func TestApprove_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newApplications(f)

	member := f.user(t, "m@x.io", models.RoleMember)
	app, err := svc.Submit(ctx, actorOf(member), validDetails())
	require.NoError(t, err)

	// a stale profile for the same user makes the profile insert fail
	// after the role update has already run inside the transaction
	f.trainer(t, member.ID, "Stale")

	_, err = svc.Approve(ctx, app.ID, admin)
	require.Error(t, err)

	var user models.User
	require.NoError(t, f.db.First(&user, member.ID).Error)
	assert.Equal(t, models.RoleMember, user.Role, "role change must roll back")

	still, err := svc.Get(ctx, app.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, still.Status)
}

func TestApprove_Guards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newApplications(f)

	member := f.user(t, "m@x.io", models.RoleMember)
	app, err := svc.Submit(ctx, actorOf(member), validDetails())
	require.NoError(t, err)

	_, err = svc.Approve(ctx, app.ID, actorOf(member))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Approve(ctx, 9999, admin)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Reject(ctx, app.ID, RejectInput{RejectionReason: "not yet"}, admin)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, app.ID, admin)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "rejected applications stay rejected")
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newApplications(f)
	rejected := f.subscribe(t, events.TopicTrainerRejected)

	member := f.user(t, "m@x.io", models.RoleMember)
	app, err := svc.Submit(ctx, actorOf(member), validDetails())
	require.NoError(t, err)

	for _, reason := range []string{"", "   "} {
		_, err = svc.Reject(ctx, app.ID, RejectInput{RejectionReason: reason}, admin)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}

	_, err = svc.Reject(ctx, 4242, RejectInput{RejectionReason: "x"}, admin)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Reject(ctx, app.ID, RejectInput{RejectionReason: "x"}, actorOf(member))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	out, err := svc.Reject(ctx, app.ID, RejectInput{RejectionReason: "Needs certification"}, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, out.Status)

	fetched, err := svc.Get(ctx, app.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, fetched.Status)
	assert.Equal(t, "Needs certification", fetched.RejectionReason)

	var user models.User
	require.NoError(t, f.db.First(&user, member.ID).Error)
	assert.Equal(t, models.RoleMember, user.Role)

	var got events.TrainerRejected
	require.NoError(t, json.Unmarshal(waitFor(t, rejected).Payload, &got))
	assert.Equal(t, "Needs certification", got.Reason)

	_, err = svc.Reject(ctx, app.ID, RejectInput{RejectionReason: "again"}, admin)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newApplications(f)

	member := f.user(t, "m@x.io", models.RoleMember)
	other := f.user(t, "o@x.io", models.RoleMember)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, st := range []models.ApplicationStatus{models.ApplicationRejected, models.ApplicationRejected, models.ApplicationPending} {
		require.NoError(t, f.db.Create(&models.TrainerApplication{
			UserID:             member.ID,
			ApplicationDetails: datatypes.NewJSONType(validDetails()),
			Status:             st,
			AppliedAt:          base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}
	_, err := svc.Submit(ctx, actorOf(other), validDetails())
	require.NoError(t, err)

	log, err := svc.ActivityLog(ctx, actorOf(member))
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.True(t, log[0].AppliedAt.After(log[1].AppliedAt))
	assert.True(t, log[1].AppliedAt.After(log[2].AppliedAt))
	assert.Equal(t, models.ApplicationPending, log[0].Status)

	all, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = svc.List(ctx, actorOf(member))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = svc.Get(ctx, log[0].ID, actorOf(member))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newApplications(f)

	member := f.user(t, "m@x.io", models.RoleMember)
	coach := f.user(t, "c@x.io", models.RoleTrainer)
	boss := f.user(t, "a@x.io", models.RoleAdmin)

	tests := []struct {
		name   string
		filter UserFilter
		want   []uint
	}{
		{"everyone", UserFilter{}, []uint{member.ID, coach.ID, boss.ID}},
		{"trainers", UserFilter{Role: models.RoleTrainer}, []uint{coach.ID}},
		{"members", UserFilter{Role: models.RoleMember}, []uint{member.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := svc.ListUsers(ctx, admin, tt.filter)
			require.NoError(t, err)
			ids := make([]uint, 0, len(users))
			for _, u := range users {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := svc.ListUsers(ctx, admin, UserFilter{Role: "owner"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = svc.ListUsers(ctx, actorOf(member), UserFilter{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	trainers, err := svc.ListTrainerUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, trainers, 1)
	assert.Equal(t, coach.Email, trainers[0].Email)
}

func TestDemote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newApplications(f)

	member := f.user(t, "m@x.io", models.RoleMember)
	app, err := svc.Submit(ctx, actorOf(member), validDetails())
	require.NoError(t, err)
	_, err = svc.Approve(ctx, app.ID, admin)
	require.NoError(t, err)

	trainers, err := svc.ListTrainerUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, trainers, 1)

	require.NoError(t, svc.Demote(ctx, member.ID, admin))

	var user models.User
	require.NoError(t, f.db.First(&user, member.ID).Error)
	assert.Equal(t, models.RoleMember, user.Role)

	var profiles int64
	require.NoError(t, f.db.Model(&models.Trainer{}).Where("user_id = ?", member.ID).Count(&profiles).Error)
	assert.Zero(t, profiles)

	assert.ErrorIs(t, svc.Demote(ctx, member.ID, admin), apperrors.ErrConflict)
	assert.ErrorIs(t, svc.Demote(ctx, 777, admin), apperrors.ErrNotFound)
}
