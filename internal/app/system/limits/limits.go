// internal/app/system/limits/limits.go
package limits

// Request body size limits per feature.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxLoginBodySize is the maximum size for login submissions.
	MaxLoginBodySize = 16 << 10 // 16 KB

	// MaxAdminFormSize is the maximum size for moderation actions
	// (reject reason, verification token, role).
	MaxAdminFormSize = 64 << 10 // 64 KB

	// MaxSignupBodySize is the maximum size for a forwarded registration.
	// It covers the profile photo and the national id scan.
	MaxSignupBodySize = 12 << 20 // 12 MB
)
