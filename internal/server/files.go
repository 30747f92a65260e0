package server

import (
	"errors"
	"mime"
	"net/http"
	"path"

	"personnel-records/internal/uploads"
)

// serveUpload streams a stored document inline. The path is relative to the
// upload root; anything that would leave it is a 400.
func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")

	obj, err := s.uploads.Open(r.Context(), rel)
	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrInvalidPath):
			s.metrics.RecordFileServe("invalid")
			http.Error(w, "invalid path", http.StatusBadRequest)
		case errors.Is(err, uploads.ErrNotFound):
			s.metrics.RecordFileServe("not_found")
			http.NotFound(w, r)
		default:
			s.metrics.RecordFileServe("error")
			Error("open upload", requestFields(r, map[string]interface{}{"rel": rel}), err)
			http.Error(w, "storage error", http.StatusBadGateway)
		}
		return
	}
	defer func() { _ = obj.Close() }()

	name := path.Base(rel)
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	s.metrics.RecordFileServe("served")
	http.ServeContent(w, r, name, obj.ModTime, obj)
}
