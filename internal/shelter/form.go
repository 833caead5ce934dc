package shelter

import "errors"

// AdminForm adds or updates a shelter on behalf of an administrator.
type AdminForm struct {
	AdminID   string
	AdminPwd  string
	Name      string
	Latitude  float64
	Longitude float64
	Info      string
}

// UserForm is a publicly submitted shelter proposal awaiting review.
type UserForm struct {
	Captcha   string
	Name      string
	Latitude  float64
	Longitude float64
	Info      string
	Evidence  string
}

func (f UserForm) verifyError() error {
	nameLen := len([]rune(f.Name))
	if nameLen < 2 {
		return errors.New("name must be at least 2 characters")
	}
	if nameLen > 10 {
		return errors.New("name can not be longer than 10 characters")
	}
	if len([]rune(f.Info)) > 20 {
		return errors.New("the maximum length of the information is 20")
	}
	return nil
}
