//go:build !darwin && !linux && !windows

package platform

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
)

// New reports that global hotkeys are unavailable on this OS.
func New(Sink, zerolog.Logger) (Backend, error) {
	return nil, fmt.Errorf("global hotkeys are not supported on %s", runtime.GOOS)
}
