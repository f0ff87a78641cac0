package shell

import (
	"bytes"
	"errors"

	"github.com/allape/gogger"
	"github.com/allape/vmclipd/bridge/clipboard"
	"github.com/allape/vmclipd/config"
)

var l = gogger.New("bridge.clipboard.shell")

// Driver bridges the clipboard through external commands, xclip by default.
type Driver struct {
	readCommand  config.Command
	writeCommand config.Command
}

func (d *Driver) Open() error {
	if d.readCommand.Empty() || d.writeCommand.Empty() {
		return errors.New("clipboard commands are empty")
	}
	return nil
}

func (d *Driver) Close() error {
	return nil
}

func (d *Driver) Read() ([]byte, error) {
	cmd, err := d.readCommand.ToCommand()
	if err != nil {
		return nil, err
	} else if cmd == nil {
		return nil, errors.New("read command is nil")
	}

	l.Verbose().Println("reading clipboard:", cmd.String())

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if stderr.Len() > 0 {
			return nil, errors.New(stderr.String())
		}
		return nil, err
	}

	return output, nil
}

// Write hands the bytes to the child over stdin, so the payload never goes
// through a shell and needs no quoting.
func (d *Driver) Write(data []byte) error {
	cmd, err := d.writeCommand.ToCommand()
	if err != nil {
		return err
	} else if cmd == nil {
		return errors.New("write command is nil")
	}

	l.Verbose().Println("writing", len(data), "bytes to clipboard:", cmd.String())

	cmd.Stdin = bytes.NewReader(data)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if len(output) > 0 {
			return errors.New(string(output))
		}
		return err
	}

	return nil
}

func NewDriver(readCommand, writeCommand config.Command) clipboard.Driver {
	return &Driver{
		readCommand:  readCommand,
		writeCommand: writeCommand,
	}
}
