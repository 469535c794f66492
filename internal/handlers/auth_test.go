package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidanatural/farmacia-web/auth"
	"github.com/vidanatural/farmacia-web/internal/models"
	"github.com/vidanatural/farmacia-web/internal/services"
)

type fakeAccounts struct {
	employee   *models.Employee
	registered uint
	profile    services.ProfileUpdate
	err        error
}

func (f *fakeAccounts) Authenticate(_ context.Context, email, password string) (*models.Employee, error) {
	if f.employee == nil || email != f.employee.Email || password != "secreto123" {
		return nil, services.ErrInvalidLogin
	}
	return f.employee, nil
}

func (f *fakeAccounts) Register(_ context.Context, _, _, _ string) (uint, error) {
	return f.registered, f.err
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, _ uint, in services.ProfileUpdate) error {
	f.profile = in
	return f.err
}

func (f *fakeAccounts) Identity(_ context.Context, id uint) (*auth.Identity, error) {
	return &auth.Identity{EmployeeID: id, Email: f.employee.Email, DisplayName: f.employee.Name, Role: f.employee.Role, Enabled: true}, nil
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		target string
	}{
		{"administrator", models.RoleAdmin, "/admin/dashboard"},
		{"employee", models.RoleEmployee, "/facturas/ventas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &fakeAccounts{employee: &models.Employee{ID: 5, Email: "laura@farmacia.test", Name: "Laura", Role: tt.role}}
			h := NewAuthHandler(accounts, nil)

			w := httptest.NewRecorder()
			h.Login(w, formRequest("/login", url.Values{"email": {"laura@farmacia.test"}, "contrasena": {"secreto123"}}))

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tt.target, w.Header().Get("Location"))
			next := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, c := range w.Result().Cookies() {
				next.AddCookie(c)
			}
			id, ok := auth.ParseSession(next)
			require.True(t, ok)
			assert.Equal(t, uint(5), id)
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAccounts{employee: &models.Employee{ID: 5, Email: "laura@farmacia.test"}}, nil)

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/login", `{"email":"laura@farmacia.test","password":"otra"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_credentials")

	w = httptest.NewRecorder()
	h.Login(w, formRequest("/login", url.Values{"email": {"laura@farmacia.test"}, "password": {"otra"}}))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, "Correo o contraseña incorrectos", flashFrom(t, w).Error)
}

func TestRegister_NotifiesChange(t *testing.T) {
	var changed uint
	h := NewAuthHandler(&fakeAccounts{registered: 9}, func(id uint) { changed = id })

	w := httptest.NewRecorder()
	h.Register(w, formRequest("/registro", url.Values{
		"email":             {"pedro@farmacia.test"},
		"contrasena":        {"secreto123"},
		"confirmContrasena": {"secreto123"},
	}))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, uint(9), changed)

	h = NewAuthHandler(&fakeAccounts{err: &services.ValidationError{Code: "password_mismatch"}}, nil)
	w = httptest.NewRecorder()
	h.Register(w, formRequest("/registro", url.Values{"email": {"pedro@farmacia.test"}}))
	assert.Equal(t, "/registro", w.Header().Get("Location"))
	assert.Equal(t, "Las contraseñas no coinciden", flashFrom(t, w).Error)
}

func TestLogout_ClearsSession(t *testing.T) {
	h := NewAuthHandler(&fakeAccounts{}, nil)
	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestUpdateProfile(t *testing.T) {
	accounts := &fakeAccounts{}
	h := NewAuthHandler(accounts, nil)

	w := httptest.NewRecorder()
	h.UpdateProfile(w, formRequest("/perfil", url.Values{
		"current_password": {"secreto123"},
		"phone":            {" 3001234567 "},
		"new_password":     {"nuevo12345"},
	}))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/perfil", w.Header().Get("Location"))
	assert.Equal(t, services.ProfileUpdate{CurrentPassword: "secreto123", Phone: "3001234567", NewPassword: "nuevo12345"}, accounts.profile)
}
