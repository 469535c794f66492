package httpx

import (
	"net/http"
	"net/url"
	"time"
)

const (
	flashCookie      = "flash"
	flashErrorCookie = "flash_error"
)

// Flash is the one-shot banner shown after a redirect.
type Flash struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Empty reports whether no banner is pending.
func (f Flash) Empty() bool { return f.Message == "" && f.Error == "" }

// SetFlash stores a success banner for the next request.
func SetFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: url.QueryEscape(msg), Path: "/", HttpOnly: true})
}

// SetFlashError stores an error banner for the next request.
func SetFlashError(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{Name: flashErrorCookie, Value: url.QueryEscape(msg), Path: "/", HttpOnly: true})
}

// PopFlash reads pending banners and clears them.
func PopFlash(w http.ResponseWriter, r *http.Request) Flash {
	var f Flash
	if c, err := r.Cookie(flashCookie); err == nil && c.Value != "" {
		f.Message, _ = url.QueryUnescape(c.Value)
		clearCookie(w, flashCookie)
	}
	if c, err := r.Cookie(flashErrorCookie); err == nil && c.Value != "" {
		f.Error, _ = url.QueryUnescape(c.Value)
		clearCookie(w, flashErrorCookie)
	}
	return f
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
}

// Redirect sends a 303 to target carrying an optional banner.
func Redirect(w http.ResponseWriter, r *http.Request, target string, f Flash) {
	if f.Message != "" {
		SetFlash(w, f.Message)
	}
	if f.Error != "" {
		SetFlashError(w, f.Error)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
