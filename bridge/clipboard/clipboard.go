package clipboard

import "io"

// Driver is the guest's local clipboard: Read returns the current
// selection, Write installs received content as the new selection.
type Driver interface {
	io.Closer
	Open() error
	Read() ([]byte, error)
	Write(data []byte) error
}
