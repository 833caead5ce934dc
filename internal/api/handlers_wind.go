package api

import (
	"net/http"
	"strconv"
)

func (s *Server) handleWindMetadata(w http.ResponseWriter, r *http.Request) {
	meta, ok := s.wind.Metadata()
	if !ok {
		http.Error(w, "Not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(meta))
}

func (s *Server) handleWindImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}

	img, ok := s.wind.Image(id)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(img)
}
