package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidanatural/farmacia-web/auth"
	"github.com/vidanatural/farmacia-web/i18n"
	"github.com/vidanatural/farmacia-web/internal/models"
	"github.com/vidanatural/farmacia-web/internal/services"
)

// Accounts is the credential service behind the auth pages.
type Accounts interface {
	Authenticate(ctx context.Context, email, password string) (*models.Employee, error)
	Register(ctx context.Context, email, password, confirm string) (uint, error)
	UpdateProfile(ctx context.Context, employeeID uint, in services.ProfileUpdate) error
	Identity(ctx context.Context, employeeID uint) (*auth.Identity, error)
}

type AuthHandler struct {
	accounts Accounts
	// changed is told about employees whose account state changed.
	changed func(employeeID uint)
}

func NewAuthHandler(accounts Accounts, changed func(uint)) *AuthHandler {
	if changed == nil {
		changed = func(uint) {}
	}
	return &AuthHandler{accounts: accounts, changed: changed}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// bindCredentials accepts JSON or the form fields email, password (or
// contrasena) and confirm (or confirmContrasena).
func bindCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if isJSONBody(r) {
		err := decodeJSON(r, &c)
		return c, err
	}
	form, err := parseForm(r)
	if err != nil {
		return c, err
	}
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := form.Get(k); v != "" {
				return v
			}
		}
		return ""
	}
	c.Email = strings.TrimSpace(form.Get("email"))
	c.Password = first("password", "contrasena")
	c.Confirm = first("confirm", "confirmContrasena")
	return c, nil
}

// LoginPage reports the pending banner, if any.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	page(w, r, map[string]any{})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	c, err := bindCredentials(r)
	if err != nil {
		fail(w, r, err, "/login")
		return
	}
	e, err := h.accounts.Authenticate(r.Context(), c.Email, c.Password)
	if err != nil {
		fail(w, r, err, "/login")
		return
	}
	auth.CreateSession(w, e.ID)
	target := "/facturas/ventas"
	if e.IsAdmin() {
		target = "/admin/dashboard"
	}
	done(w, r, http.StatusOK, map[string]any{"id": e.ID, "name": e.Name, "role": e.Role}, target, "")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "/login", i18n.T(lang(r), "logged_out"))
}

// Register activates a pre-created employee account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	c, err := bindCredentials(r)
	if err != nil {
		fail(w, r, err, "/registro")
		return
	}
	employeeID, err := h.accounts.Register(r.Context(), c.Email, c.Password, c.Confirm)
	if err != nil {
		fail(w, r, err, "/registro")
		return
	}
	h.changed(employeeID)
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "/login", i18n.T(lang(r), "registration_done"))
}

// Profile shows the signed-in employee.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		employeeID, _ := auth.EmployeeIDFromContext(r.Context())
		var err error
		if id, err = h.accounts.Identity(r.Context(), employeeID); err != nil {
			fail(w, r, err, "/login")
			return
		}
	}
	page(w, r, map[string]any{"employee": map[string]any{
		"id":    id.EmployeeID,
		"email": id.Email,
		"name":  id.DisplayName,
		"role":  id.Role,
	}})
}

type profileInput struct {
	CurrentPassword string `json:"current_password"`
	Phone           string `json:"phone"`
	NewPassword     string `json:"new_password"`
}

// UpdateProfile changes the signed-in employee's phone and password.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	employeeID, _ := auth.EmployeeIDFromContext(r.Context())
	var in profileInput
	if isJSONBody(r) {
		if err := decodeJSON(r, &in); err != nil {
			fail(w, r, err, "/perfil")
			return
		}
	} else {
		form, err := parseForm(r)
		if err != nil {
			fail(w, r, err, "/perfil")
			return
		}
		in = profileInput{
			CurrentPassword: form.Get("current_password"),
			Phone:           strings.TrimSpace(form.Get("phone")),
			NewPassword:     form.Get("new_password"),
		}
	}
	err := h.accounts.UpdateProfile(r.Context(), employeeID, services.ProfileUpdate(in))
	if err != nil {
		fail(w, r, err, "/perfil")
		return
	}
	done(w, r, http.StatusOK, map[string]any{"ok": true}, "/perfil", i18n.T(lang(r), "profile_updated"))
}
