package devport

import (
	"encoding/binary"
	"errors"
	"os"
	"sync"

	"github.com/allape/gogger"
	"github.com/allape/vmclipd/bridge/port"
)

var l = gogger.New("bridge.port.devport")

// Gate drives the doorbell through the kernel's raw port device, so it
// works on any arch without inline assembly. Requires CAP_SYS_RAWIO.
type Gate struct {
	openLocker sync.Locker

	file *os.File

	Dev  string
	Addr int64
}

func (g *Gate) Open() error {
	g.openLocker.Lock()
	defer g.openLocker.Unlock()

	if g.file != nil {
		return nil
	}

	file, err := os.OpenFile(g.Dev, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	g.file = file

	l.Verbose().Println("opened", g.Dev, "for port", g.Addr)

	return nil
}

func (g *Gate) Close() error {
	g.openLocker.Lock()
	defer g.openLocker.Unlock()

	if g.file == nil {
		return nil
	}

	err := g.file.Close()
	g.file = nil
	return err
}

func (g *Gate) Issue(cmd uint32) error {
	if g.file == nil {
		return errors.New("port gate is not open")
	}

	var word [4]byte
	binary.NativeEndian.PutUint32(word[:], cmd)
	_, err := g.file.WriteAt(word[:], g.Addr)
	return err
}

func (g *Gate) Status() (uint32, error) {
	if g.file == nil {
		return 0, errors.New("port gate is not open")
	}

	var word [4]byte
	if _, err := g.file.ReadAt(word[:], g.Addr); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(word[:]), nil
}

func New(dev string, addr int64) port.Gate {
	return &Gate{
		openLocker: &sync.Mutex{},
		Dev:        dev,
		Addr:       addr,
	}
}
