package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vidanatural/farmacia-web/httpx"
	"github.com/vidanatural/farmacia-web/i18n"
	"github.com/vidanatural/farmacia-web/internal/services"
	"gorm.io/gorm"
)

// errBadInput marks a body that could not be decoded.
var errBadInput = errors.New("invalid input")

func lang(r *http.Request) string { return i18n.LangFrom(r.Context()) }

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadInput
	}
	return nil
}

// parseForm parses url-encoded and multipart bodies.
func parseForm(r *http.Request) (url.Values, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return nil, errBadInput
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, errBadInput
	}
	return r.Form, nil
}

func pathID(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// status and message code for an error returned by a service or by gorm.
func classify(err error) (int, string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Code
	case errors.Is(err, errBadInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return http.StatusConflict, "in_use"
	case errors.Is(err, services.ErrInvalidLogin):
		return http.StatusUnauthorized, "invalid_credentials"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail answers err as JSON or as a redirect to back with an error banner.
func fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	var details any
	var ve *services.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		details = i18n.Violations(lang(r), ve.Fields)
	}
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, code, details)
		return
	}
	msg := i18n.T(lang(r), code)
	if status == http.StatusInternalServerError {
		msg = err.Error()
	}
	httpx.Redirect(w, r, back, httpx.Flash{Error: msg})
}

// invalid answers field violations.
func invalid(w http.ResponseWriter, r *http.Request, fields map[string]string, back string) {
	fail(w, r, &services.ValidationError{Code: "invalid_input", Fields: fields}, back)
}

// done answers a successful write: payload as JSON, or a redirect with a banner.
func done(w http.ResponseWriter, r *http.Request, status int, payload any, target, message string) {
	if httpx.WantsJSON(r) {
		httpx.JSON(w, status, payload)
		return
	}
	httpx.Redirect(w, r, target, httpx.Flash{Message: message})
}

// page answers a read. There are no HTML templates; reads always return JSON
// and carry any pending banner.
func page(w http.ResponseWriter, r *http.Request, data map[string]any) {
	if f := httpx.PopFlash(w, r); !f.Empty() {
		data["flash"] = f
	}
	httpx.JSON(w, http.StatusOK, data)
}
