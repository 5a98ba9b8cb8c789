// internal/domain/models/academic.go
package models

// Faculty is an academic faculty offered at signup.
type Faculty struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Department belongs to a faculty.
type Department struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FacultyID   ID     `json:"facultyId"`
}
