//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework ApplicationServices -framework Cocoa
#import <ApplicationServices/ApplicationServices.h>
#import <Cocoa/Cocoa.h>

int checkAccessibility(int prompt) {
    NSDictionary *options = @{(__bridge id)kAXTrustedCheckOptionPrompt: prompt ? @YES : @NO};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}
*/
import "C"

import "fmt"

// CheckAccessibility reports whether the process is trusted for
// accessibility. Sending key chords and some global hotkeys depend on it.
func CheckAccessibility() bool {
	return C.checkAccessibility(0) == 1
}

// PromptAccessibility asks the system to show the accessibility dialog and
// reports the current trust state.
func PromptAccessibility() bool {
	return C.checkAccessibility(1) == 1
}

// EnsurePermissions checks accessibility and prompts when it is missing.
func EnsurePermissions() error {
	if CheckAccessibility() {
		return nil
	}
	PromptAccessibility()
	return fmt.Errorf("%w: grant it in %s", ErrAccessibility, settingsHint)
}
