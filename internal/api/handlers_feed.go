package api

import (
	"encoding/json"
	"net/http"
)

// writeCachedJSON serves a previously published cache-slot payload
// verbatim, or 503 if the job behind it hasn't published one yet.
func writeCachedJSON(w http.ResponseWriter, payload string, ok bool) {
	if !ok {
		http.Error(w, "Not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(payload))
}

func (s *Server) handleActiveFireMap(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.activeFire.Snapshot()
	writeCachedJSON(w, payload, ok)
}

func (s *Server) handleCctvMap(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.cctv.Snapshot()
	writeCachedJSON(w, payload, ok)
}

// handleCctvByName looks a single camera up by name out of the feed's
// name-keyed index, populated on every publish.
func (s *Server) handleCctvByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	c, ok := s.cctv.ByName(name)
	if !ok {
		http.Error(w, "Not found", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

func (s *Server) handleFireEventMap(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.fireEvent.Snapshot()
	writeCachedJSON(w, payload, ok)
}

func (s *Server) handleFireWarning(w http.ResponseWriter, r *http.Request) {
	img, ok := s.fireWarning.Snapshot()
	if !ok || len(img) == 0 {
		http.Error(w, "Not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(img)
}

func (s *Server) handleFireForecastMap(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.forecast.Snapshot()
	writeCachedJSON(w, payload, ok)
}

func (s *Server) handleDangerPlaceMap(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.dangerPlace.Snapshot()
	writeCachedJSON(w, payload, ok)
}
