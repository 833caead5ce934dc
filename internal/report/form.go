package report

import (
	"errors"
	"strings"
)

// SubmitForm is a user-submitted fire sighting pending validation.
type SubmitForm struct {
	Captcha     string
	UserID      string
	UserPwd     string
	Latitude    float64
	Longitude   float64
	Level       int
	Description string
	ImgKey      string
}

// verifyError returns the first validation failure, or nil if the form
// is acceptable for insertion.
func (f SubmitForm) verifyError() error {
	idLen := len([]rune(f.UserID))
	if strings.ContainsAny(f.UserID, " \t\n\r") {
		return errors.New("user id must not contain whitespace")
	}
	if idLen < 2 || idLen > 24 {
		return errors.New("user id must be between 2 and 24 characters")
	}
	if len([]rune(f.UserPwd)) < 4 {
		return errors.New("password must be at least 4 characters")
	}
	if f.Level < 0 || f.Level >= 5 {
		return errors.New("level must be between 0 and 4")
	}
	if len(f.Description) > 65536 {
		return errors.New("description is too long")
	}
	if strings.Contains(f.ImgKey, "..") || len(f.ImgKey) > 256 {
		return errors.New("invalid image key")
	}
	return nil
}

// BadReportForm flags an existing report as spurious.
type BadReportForm struct {
	Captcha  string
	ReportID int64
	Reason   string
}

func (f BadReportForm) verifyError() error {
	if len(f.Reason) > 65536 {
		return errors.New("reason is too long")
	}
	return nil
}
