package handlers

import (
	"net/http"
	"os"
	"path/filepath"
)

// FileResolver maps a files folder and name to a path on disk.
type FileResolver interface {
	Local(folder, name string) (string, bool)
}

// FileHandler serves generated invoices inline.
type FileHandler struct {
	files FileResolver
}

func NewFileHandler(files FileResolver) *FileHandler {
	return &FileHandler{files: files}
}

// Serve answers GET /archivos/{category}/{filename}.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	local, ok := h.files.Local(r.PathValue("category"), r.PathValue("filename"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(local)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+filepath.Base(local)+`"`)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
