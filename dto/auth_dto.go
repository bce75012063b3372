package dto

import (
	"regexp"
	"strings"

	"github.com/princinho/drivequiz/apperr"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type LoginDTO struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (d *RegisterDTO) Validate() error {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Name = strings.TrimSpace(d.Name)
	if d.Email == "" || d.Password == "" || d.Name == "" {
		return apperr.InvalidInput("All fields are required")
	}
	if !emailPattern.MatchString(d.Email) {
		return apperr.InvalidInput("Invalid email format")
	}
	if len(d.Password) < 6 {
		return apperr.InvalidInput("Password must be at least 6 characters")
	}
	return nil
}

// ChangeMyPasswordDTO is the console's own-password form.
type ChangeMyPasswordDTO struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=128"`
}
