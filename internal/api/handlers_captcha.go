package api

import (
	"net/http"
	"strconv"
)

func (s *Server) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	channel, _ := strconv.Atoi(r.URL.Query().Get("channel"))

	img, err := s.captcha.Issue(w, channel)
	if err != nil {
		http.Error(w, "Captcha generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(img)
}
