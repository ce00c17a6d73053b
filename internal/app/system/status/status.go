// internal/app/system/status/status.go
package status

// Member and user record statuses.
const (
	Active   = "active"
	Inactive = "inactive"
	Disabled = "disabled"
)

// IsValid reports whether s is a recognized status value.
func IsValid(s string) bool {
	switch s {
	case Active, Inactive, Disabled:
		return true
	}
	return false
}
