package model

import (
	"time"
)

// User status constants
const (
	UserStatusActive = "active"
	UserStatusLocked = "locked"
)

// User represents a registered account together with the optional
// demographic and medical fields collected by the profile editor.
type User struct {
	Base
	Email              string     `json:"email" db:"email"`
	Name               string     `json:"name" db:"name"`
	Password           string     `json:"password,omitempty" db:"-"`
	PasswordHash       string     `json:"-" db:"password_hash"`
	Phone              *string    `json:"phone" db:"phone"`
	DateOfBirth        *string    `json:"date_of_birth" db:"date_of_birth"`
	Gender             *string    `json:"gender" db:"gender"`
	BloodType          *string    `json:"blood_type" db:"blood_type"`
	Allergies          *string    `json:"allergies" db:"allergies"`
	CurrentMedications *string    `json:"current_medications" db:"current_medications"`
	MedicalHistory     *string    `json:"medical_history" db:"medical_history"`
	EmergencyContact   *string    `json:"emergency_contact" db:"emergency_contact"`
	Status             string     `json:"status" db:"status"`
	LastLoginAt        *time.Time `json:"last_login_at" db:"last_login_at"`
	LoginAttempts      int        `json:"-" db:"login_attempts"`
	LastLoginAttempt   time.Time  `json:"-" db:"last_login_attempt"`
}

// SignupRequest represents account creation parameters
type SignupRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=6"`
	Name        string  `json:"name" binding:"required"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"dateOfBirth"`
	Gender      *string `json:"gender"`
}

// UpdateProfileRequest carries a partial profile update. Nil fields
// are left untouched by the merge.
type UpdateProfileRequest struct {
	Name               *string `json:"name"`
	Phone              *string `json:"phone"`
	DateOfBirth        *string `json:"date_of_birth"`
	Gender             *string `json:"gender"`
	BloodType          *string `json:"blood_type"`
	Allergies          *string `json:"allergies"`
	CurrentMedications *string `json:"current_medications"`
	MedicalHistory     *string `json:"medical_history"`
	EmergencyContact   *string `json:"emergency_contact"`
}
