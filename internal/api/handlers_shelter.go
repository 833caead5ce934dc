package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/NeuroWhAI/firemapserver/internal/shelter"
)

func (s *Server) handleShelterMap(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.shelter.SnapshotMap()
	writeCachedJSON(w, payload, ok)
}

func (s *Server) handleShelter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}

	payload, ok := s.shelter.SnapshotShelter(id)
	if !ok {
		http.Error(w, "Not found", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(payload))
}

func (s *Server) handleAdminShelter(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		lat, _ := strconv.ParseFloat(r.FormValue("latitude"), 64)
		lon, _ := strconv.ParseFloat(r.FormValue("longitude"), 64)
		form := shelter.AdminForm{
			AdminID:   r.FormValue("admin_id"),
			AdminPwd:  r.FormValue("admin_pwd"),
			Name:      r.FormValue("name"),
			Latitude:  lat,
			Longitude: lon,
			Info:      r.FormValue("info"),
		}
		id, err := s.shelter.AdminAdd(form)
		if err != nil {
			respondError(w, err)
			return
		}
		fmt.Fprintf(w, "%d", id)
	case http.MethodDelete:
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid id", http.StatusBadRequest)
			return
		}
		if err := s.shelter.AdminDelete(r.URL.Query().Get("admin_id"), r.URL.Query().Get("admin_pwd"), id); err != nil {
			respondError(w, err)
			return
		}
		fmt.Fprintf(w, "%d", id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdminUserShelterList(w http.ResponseWriter, r *http.Request) {
	list, err := s.shelter.AdminListUserShelters(r.URL.Query().Get("admin_id"), r.URL.Query().Get("admin_pwd"))
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (s *Server) handleAdminUserShelter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := s.shelter.AdminDeleteUserShelter(r.URL.Query().Get("admin_id"), r.URL.Query().Get("admin_pwd"), id); err != nil {
		respondError(w, err)
		return
	}
	fmt.Fprintf(w, "%d", id)
}

func (s *Server) handleUserShelter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lat, _ := strconv.ParseFloat(r.FormValue("latitude"), 64)
	lon, _ := strconv.ParseFloat(r.FormValue("longitude"), 64)
	form := shelter.UserForm{
		Captcha:   r.FormValue("captcha"),
		Name:      r.FormValue("name"),
		Latitude:  lat,
		Longitude: lon,
		Info:      r.FormValue("info"),
		Evidence:  r.FormValue("evidence"),
	}

	id, err := s.shelter.SubmitUserShelter(w, r, form)
	if err != nil {
		respondError(w, err)
		return
	}
	fmt.Fprintf(w, "%d", id)
}

func (s *Server) handleEvalShelter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	score, _ := strconv.Atoi(r.FormValue("score"))

	good, bad, err := s.shelter.Eval(w, r, r.FormValue("captcha"), id, score)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		ID   int64 `json:"id"`
		Good int   `json:"good"`
		Bad  int   `json:"bad"`
	}{id, good, bad})
}
