package api

import "net/http"

// respondError maps a component-level error to the canonical 400
// response body; auth and captcha failures get their literal source
// wording, everything else falls back to err.Error().
func respondError(w http.ResponseWriter, err error) {
	msg := err.Error()
	switch msg {
	case "wrong captcha":
		msg = "Wrong captcha"
	case "authentication failed":
		msg = "Authentication failed!"
	}
	http.Error(w, msg, http.StatusBadRequest)
}
