package serialport

import (
	"errors"
	"strings"
	"sync"

	"github.com/allape/gogger"
	"github.com/allape/vmclipd/bridge/clipboard"
	"go.bug.st/serial"
)

var l = gogger.New("bridge.clipboard.serialport")

// MaxFrameSize is the largest payload the 16-bit length field can carry.
const MaxFrameSize = 0xFFFF

// Driver forwards received clipboard content to a serial-attached helper,
// for guests without a display server. It is a one-way sink.
type Driver struct {
	clipboard.Driver

	openLocker  sync.Locker
	writeLocker sync.Locker

	Port serial.Port

	Name string
	Baud int
}

func (d *Driver) Open() error {
	d.openLocker.Lock()
	defer d.openLocker.Unlock()

	if d.Port != nil {
		return errors.New("port already open")
	}

	mode := &serial.Mode{
		BaudRate: d.Baud,
	}
	port, err := serial.Open(d.Name, mode)
	if err != nil {
		return err
	}
	d.Port = port

	go func(port serial.Port) {
		buf := make([]byte, 1024)
		for {
			n, err := port.Read(buf)
			if err != nil {
				l.Error().Println("read error:", err)
			}
			if n == 0 {
				l.Warn().Println("EOF")
				return
			}
			l.Verbose().Println(">", strings.TrimSpace(string(buf[:n])))
		}
	}(port)

	return nil
}

func (d *Driver) Close() error {
	d.openLocker.Lock()
	defer d.openLocker.Unlock()

	if d.Port == nil {
		return nil
	}

	err := d.Port.Close()
	d.Port = nil
	return err
}

// Write frames the payload as 0xFE, a 16-bit big-endian length and the
// bytes themselves. Larger payloads are truncated, the framing cannot
// carry more.
func (d *Driver) Write(data []byte) error {
	err := d.Open()

	if d.Port == nil {
		return err
	}

	if len(data) > MaxFrameSize {
		l.Warn().Println("clipboard has", len(data), "bytes, truncating to", MaxFrameSize)
		data = data[:MaxFrameSize]
	}

	d.writeLocker.Lock()
	defer d.writeLocker.Unlock()

	length := len(data)
	frame := append([]byte{0xFE, byte((length >> 8) & 0xFF), byte(length & 0xFF)}, data...)

	_, err = d.Port.Write(frame)
	if err != nil {
		_ = d.Close()
		return err
	}

	return nil
}

// Read always reports an empty selection, the helper on the far end has no
// way to send content back over this framing.
func (d *Driver) Read() ([]byte, error) {
	return nil, nil
}

func New(name string, baud int) clipboard.Driver {
	return &Driver{
		openLocker:  &sync.Mutex{},
		writeLocker: &sync.Mutex{},
		Name:        name,
		Baud:        baud,
	}
}
