// Package validation contains input validation rules for user-supplied fields.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	studentIDPattern = regexp.MustCompile(`^[0-9]{5,12}$`)
	emailPattern     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateStudentID checks the login handle: numeric, 5-12 digits.
func ValidateStudentID(studentID string) error {
	if !studentIDPattern.MatchString(studentID) {
		return errors.New("student ID must be 5-12 digits")
	}
	return nil
}

// ValidateNickname checks the display name: 2-20 characters, no surrounding whitespace.
func ValidateNickname(nickname string) error {
	if strings.TrimSpace(nickname) != nickname {
		return errors.New("nickname must not start or end with whitespace")
	}
	n := len([]rune(nickname))
	if n < 2 || n > 20 {
		return errors.New("nickname must be 2-20 characters")
	}
	return nil
}

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidatePassword enforces minimum password strength: at least 8 characters
// with at least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one digit")
	}
	return nil
}
