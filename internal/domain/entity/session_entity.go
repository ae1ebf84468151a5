package entity

import "time"

// Session is the server-side record of an issued access token.
type Session struct {
	AccountID string
	Email     string
	Name      string
	Role      Role
	ExpiresAt time.Time
}

// DirectoryEntry is the searchable view of a verified alumnus.
type DirectoryEntry struct {
	AccountID      string `json:"account_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Course         Course `json:"course,omitempty"`
	GraduationYear int    `json:"graduation_year,omitempty"`
	Designation    string `json:"designation,omitempty"`
}
