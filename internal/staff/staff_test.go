package staff

import (
	"context"
	"testing"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/models"
	"kafe-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const secret = "0123456789abcdef0123456789abcdef"

func newService(t *testing.T) (*Service, *auth.Service, *livesync.Bus) {
	t.Helper()
	db := testutil.OpenDB(t)
	bus := livesync.NewBus()
	clock := testutil.NewClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	authSvc := auth.NewService(db, secret, time.Hour, auth.WithClock(clock.Now))
	return NewService(db, bus, authSvc), authSvc, bus
}

func TestCreateStaff(t *testing.T) {
	s, _, _ := newService(t)
	ctx := context.Background()

	u, err := s.Create(ctx, NewStaff{Name: "Deniz", Email: " Deniz@Kafe.test", Password: "gizli123", IsActive: true, Position: "barista"})
	require.NoError(t, err)
	assert.Equal(t, "deniz@kafe.test", u.Email)
	assert.Equal(t, models.RoleStaff, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("gizli123")))

	_, err = s.Create(ctx, NewStaff{Name: "Deniz 2", Email: "deniz@kafe.test", Password: "gizli123"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = s.Create(ctx, NewStaff{Name: "Kısa", Email: "k@kafe.test", Password: "123"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = s.Create(ctx, NewStaff{Name: "Şef", Email: "s@kafe.test", Password: "gizli123", Role: "chef"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestToggleShiftPublishes(t *testing.T) {
	s, _, bus := newService(t)
	ctx := context.Background()
	u, err := s.Create(ctx, NewStaff{Name: "Deniz", Email: "deniz@kafe.test", Password: "gizli123", IsActive: true})
	require.NoError(t, err)

	signals, cancel := bus.Subscribe(livesync.TopicStaff)
	defer cancel()

	u, err = s.ToggleShift(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, u.OnShift)
	assert.Equal(t, "on_shift", (<-signals).Status)

	list, err := s.ListStaff(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 1, Active: 1, OnShift: 1}, Summarize(list))
}

func TestDeactivateRevokesSessions(t *testing.T) {
	s, authSvc, _ := newService(t)
	ctx := context.Background()
	u, err := s.Create(ctx, NewStaff{Name: "Deniz", Email: "deniz@kafe.test", Password: "gizli123", IsActive: true})
	require.NoError(t, err)

	token, _, err := authSvc.SignIn(ctx, "deniz@kafe.test", "gizli123")
	require.NoError(t, err)

	u, err = s.ToggleActive(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, err = authSvc.Authenticate(ctx, token)
	assert.Error(t, err)
}

func TestResetPassword(t *testing.T) {
	s, authSvc, _ := newService(t)
	ctx := context.Background()
	u, err := s.Create(ctx, NewStaff{Name: "Deniz", Email: "deniz@kafe.test", Password: "gizli123", IsActive: true})
	require.NoError(t, err)

	assert.ErrorIs(t, s.ResetPassword(ctx, u.ID, ""), apperr.ErrInvalidInput)
	require.NoError(t, s.ResetPassword(ctx, u.ID, "yenisifre"))

	_, _, err = authSvc.SignIn(ctx, "deniz@kafe.test", "gizli123")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, _, err = authSvc.SignIn(ctx, "deniz@kafe.test", "yenisifre")
	assert.NoError(t, err)
}

func TestSelfGuard(t *testing.T) {
	s, _, _ := newService(t)
	admin, err := s.Create(context.Background(), NewStaff{Name: "Admin", Email: "a@kafe.test", Password: "gizli123", Role: models.RoleAdmin, IsActive: true})
	require.NoError(t, err)

	ctx := auth.WithSession(context.Background(), &auth.Session{UserID: admin.ID, Role: models.RoleAdmin})
	assert.ErrorIs(t, s.Delete(ctx, admin.ID), apperr.ErrForbidden)
	_, err = s.ToggleActive(ctx, admin.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	assert.ErrorIs(t, s.Delete(ctx, 999), apperr.ErrNotFound)

	other, err := s.Create(ctx, NewStaff{Name: "Deniz", Email: "d@kafe.test", Password: "gizli123", IsActive: true})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, other.ID))
	_, err = s.Get(ctx, other.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
