package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidanatural/farmacia-web/auth"
	"github.com/vidanatural/farmacia-web/internal/models"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	conn := openTestDB(t)
	e := models.Employee{NationalID: 77, Name: "Ana", Email: "ana@farmacia.test", Role: models.RoleEmployee}
	require.NoError(t, conn.Create(&e).Error)
	svc := NewAccountService(conn)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "ana@farmacia.test", "")
	assert.ErrorIs(t, err, ErrInvalidLogin, "inactive account cannot log in")

	var ve *ValidationError
	require.ErrorAs(t, registerErr(ctx, svc, "nadie@farmacia.test", "clave1234", "clave1234"), &ve)
	assert.Equal(t, "registration_unknown", ve.Code)
	require.ErrorAs(t, registerErr(ctx, svc, "ana@farmacia.test", "clave1234", "clave9999"), &ve)
	assert.Equal(t, "password_mismatch", ve.Code)
	require.ErrorAs(t, registerErr(ctx, svc, "ana@farmacia.test", "corta1", "corta1"), &ve)
	assert.Equal(t, "password_too_short", ve.Code)
	require.ErrorAs(t, registerErr(ctx, svc, "ana@farmacia.test", "sinnumeros", "sinnumeros"), &ve)
	assert.Equal(t, "password_needs_digit", ve.Code)

	id, err := svc.Register(ctx, " ANA@farmacia.test ", "clave1234", "clave1234")
	require.NoError(t, err)
	assert.Equal(t, e.ID, id)
	require.ErrorAs(t, registerErr(ctx, svc, "ana@farmacia.test", "clave1234", "clave1234"), &ve)
	assert.Equal(t, "registration_already_active", ve.Code)

	got, err := svc.Authenticate(ctx, "ana@farmacia.test", "clave1234")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	_, err = svc.Authenticate(ctx, "ana@farmacia.test", "otra12345")
	assert.ErrorIs(t, err, ErrInvalidLogin)
	_, err = svc.Authenticate(ctx, "x@farmacia.test", "clave1234")
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestUpdateProfile(t *testing.T) {
	conn := openTestDB(t)
	hash, err := auth.HashPassword("actual123")
	require.NoError(t, err)
	e := models.Employee{NationalID: 78, Name: "Luis", Email: "luis@farmacia.test", Role: models.RoleEmployee, Password: hash, Active: true}
	require.NoError(t, conn.Create(&e).Error)
	svc := NewAccountService(conn)
	ctx := context.Background()

	var ve *ValidationError
	require.ErrorAs(t, svc.UpdateProfile(ctx, e.ID, ProfileUpdate{CurrentPassword: "mala1234", Phone: "3001234567"}), &ve)
	assert.Equal(t, "wrong_current_password", ve.Code)

	require.NoError(t, svc.UpdateProfile(ctx, e.ID, ProfileUpdate{CurrentPassword: "actual123", Phone: "3001234567", NewPassword: "nueva1234"}))
	_, err = svc.Authenticate(ctx, "luis@farmacia.test", "nueva1234")
	require.NoError(t, err)

	id, err := svc.Identity(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, id.Enabled)
	assert.Equal(t, "Luis", id.DisplayName)
	assert.True(t, id.HasRole(models.RoleEmployee))

	_, err = svc.Identity(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func registerErr(ctx context.Context, svc *AccountService, email, password, confirm string) error {
	_, err := svc.Register(ctx, email, password, confirm)
	return err
}
