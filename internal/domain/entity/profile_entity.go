package entity

import "time"

// PasswordResetSentinel replaces the password hash while a reset is pending.
// It is not a PHC or bcrypt string, so no password ever verifies against it.
const PasswordResetSentinel = "null"

type Gender string

const (
	GenderMale           Gender = "Male"
	GenderFemale         Gender = "Female"
	GenderPreferNotToSay Gender = "PreferNotToSay"
)

type Course string

const (
	CourseSoftwareSystems Course = "SOFTWARESYSTEMS"
	CourseDataScience     Course = "DATASCIENCE"
)

// Profile is the credential and personal-detail record owned by an Account.
// Email duplicates Account.Email and is the lookup key for credential checks.
type Profile struct {
	ID             string
	UserID         string
	Email          string
	PasswordHash   string
	Name           string
	Gender         Gender
	RollNumber     string
	PhoneNumber    string
	Designation    string
	GraduationYear int
	Address        string
	Course         Course
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
