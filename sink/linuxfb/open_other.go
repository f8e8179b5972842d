//go:build !linux

package linuxfb

import "github.com/juju/errors"

// Open opens the framebuffer device at path. Framebuffer devices only
// exist on Linux.
func Open(path string) (*Dev, error) {
	return nil, errors.NotSupportedf("framebuffer %s on this platform", path)
}
