package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/NeuroWhAI/firemapserver/internal/report"
)

func (s *Server) handleReportMap(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.report.Snapshot()
	writeCachedJSON(w, payload, ok)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getReport(w, r)
	case http.MethodPost:
		s.postReport(w, r)
	case http.MethodDelete:
		s.deleteReport(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}

	payload, ok, err := s.report.GetReportJSON(id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Not found", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(payload))
}

func (s *Server) postReport(w http.ResponseWriter, r *http.Request) {
	lat, _ := strconv.ParseFloat(r.FormValue("latitude"), 64)
	lon, _ := strconv.ParseFloat(r.FormValue("longitude"), 64)
	lvl, _ := strconv.Atoi(r.FormValue("lvl"))

	form := report.SubmitForm{
		Captcha:     r.FormValue("captcha"),
		UserID:      r.FormValue("user_id"),
		UserPwd:     r.FormValue("user_pwd"),
		Latitude:    lat,
		Longitude:   lon,
		Level:       lvl,
		Description: r.FormValue("description"),
		ImgKey:      r.FormValue("img_key"),
	}

	id, err := s.report.Submit(w, r, form)
	if err != nil {
		respondError(w, err)
		return
	}
	fmt.Fprintf(w, "%d", id)
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}

	if err := s.report.Delete(r.URL.Query().Get("user_id"), r.URL.Query().Get("user_pwd"), id); err != nil {
		respondError(w, err)
		return
	}
	fmt.Fprintf(w, "%d", id)
}

func (s *Server) handleBadReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reportID, _ := strconv.ParseInt(r.FormValue("report_id"), 10, 64)
	form := report.BadReportForm{
		Captcha:  r.FormValue("captcha"),
		ReportID: reportID,
		Reason:   r.FormValue("reason"),
	}

	id, err := s.report.SubmitBadReport(w, r, form)
	if err != nil {
		respondError(w, err)
		return
	}
	fmt.Fprintf(w, "%d", id)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key, err := s.report.UploadImage(r.FormValue("image"))
	if err != nil {
		respondError(w, err)
		return
	}
	fmt.Fprint(w, key)
}

func (s *Server) handleAdminBadReportList(w http.ResponseWriter, r *http.Request) {
	list, err := s.report.AdminListBadReports(r.URL.Query().Get("admin_id"), r.URL.Query().Get("admin_pwd"))
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (s *Server) handleAdminBadReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}

	if err := s.report.AdminDeleteBadReport(r.URL.Query().Get("admin_id"), r.URL.Query().Get("admin_pwd"), id); err != nil {
		respondError(w, err)
		return
	}
	fmt.Fprintf(w, "%d", id)
}
