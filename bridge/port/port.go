// Package port abstracts the hypervisor doorbell: a fixed 4-byte-wide I/O
// port where every written word is a command and the following read returns
// the completion status of that command.
package port

import "io"

type Gate interface {
	io.Closer
	Open() error
	// Issue writes one command word to the port.
	Issue(cmd uint32) error
	// Status reads the completion word for the most recent command. Zero
	// means the hypervisor accepted the step.
	Status() (uint32, error)
}
