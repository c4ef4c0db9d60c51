package http

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// SPAHandler serves the shop front-end bundle. Unknown paths fall back to
// index.html so client-side routes survive a reload. API paths never reach
// it; chi matches /api/v1 first.
type SPAHandler struct {
	StaticFS fs.FS
}

func (h SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" || name == "." {
		h.serveIndex(w)
		return
	}

	stat, err := fs.Stat(h.StaticFS, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.serveIndex(w)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if stat.IsDir() {
		h.serveIndex(w)
		return
	}

	// Hashed bundle assets are immutable.
	if strings.HasPrefix(name, "assets/") {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
	http.ServeFileFS(w, r, h.StaticFS, name)
}

func (h SPAHandler) serveIndex(w http.ResponseWriter) {
	content, err := fs.ReadFile(h.StaticFS, "index.html")
	if err != nil {
		http.Error(w, "index.html not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}
