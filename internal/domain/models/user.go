// internal/domain/models/user.go
package models

// User is the authoritative account record as the CampusCard API returns
// it. The console never persists it; it reads it, and mutates it only
// through administrator calls.
//
// NOTE:
//   - Status and EmailVerified are independent axes. An approved user may
//     be unverified and a verified user may still be pending.
//   - Role ADMIN exempts the user from approval gating for navigation but
//     does not change Status.
type User struct {
	ID                ID         `json:"id"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Email             string     `json:"email"`
	NationalID        string     `json:"nationalId,omitempty"`
	Role              Role       `json:"role"`
	Status            Status     `json:"status"`
	EmailVerified     bool       `json:"emailVerified"`
	RejectionReason   string     `json:"rejectionReason,omitempty"`
	Faculty           string     `json:"faculty,omitempty"`
	Department        string     `json:"department,omitempty"`
	Year              int        `json:"year,omitempty"`
	Visibility        Visibility `json:"visibility,omitempty"`
	ProfilePhotoURL   string     `json:"profilePhotoUrl,omitempty"`
	NationalIDScanURL string     `json:"nationalIdScanUrl,omitempty"`
	RegistrationDate  string     `json:"registrationDate,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Profile is the public-facing card of a user.
type Profile struct {
	UserID       ID         `json:"userId"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email,omitempty"`
	Faculty      string     `json:"faculty,omitempty"`
	Department   string     `json:"department,omitempty"`
	Year         int        `json:"year,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	LinkedIn     string     `json:"linkedin,omitempty"`
	GitHub       string     `json:"github,omitempty"`
	Interests    string     `json:"interests,omitempty"`
	ProfilePhoto string     `json:"profilePhoto,omitempty"`
	Visibility   Visibility `json:"visibility"`

	// Present only on the caller's own profile (GET /api/profile).
	Role   Role   `json:"role,omitempty"`
	Status Status `json:"status,omitempty"`
}

// DashboardStats are the moderation counters shown on the admin home.
type DashboardStats struct {
	TotalUsers       int64 `json:"totalUsers"`
	PendingApprovals int64 `json:"pendingApprovals"`
	ApprovedUsers    int64 `json:"approvedUsers"`
	RejectedUsers    int64 `json:"rejectedUsers"`
	StudentsCount    int64 `json:"studentsCount"`
	AdminsCount      int64 `json:"adminsCount"`
	VerifiedEmails   int64 `json:"verifiedEmails"`
	UnverifiedEmails int64 `json:"unverifiedEmails"`
}
