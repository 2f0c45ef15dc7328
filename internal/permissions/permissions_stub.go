//go:build !darwin

package permissions

// CheckAccessibility always reports true outside macOS.
func CheckAccessibility() bool { return true }

// PromptAccessibility is a no-op on non-macOS platforms.
func PromptAccessibility() bool { return true }

// EnsurePermissions is a no-op on non-macOS platforms.
func EnsurePermissions() error {
	return nil
}
