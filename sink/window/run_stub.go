//go:build !cgo

package window

import "errors"

// Run reports that the window is unavailable.
func (d *Dev) Run() error {
	return errors.New("window: requires cgo (build/run with CGO_ENABLED=1)")
}
