// Package mailbox owns the single 4 KiB page shared with the hypervisor and
// the frame layouts overlaid on it. Callers never see the raw page, reads
// come back as copies and writes go through layout-specific methods.
package mailbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	PageSize = 4096
	// HeaderSize bytes are reserved at the top of header-carrying frames,
	// the payload of those frames starts right after.
	HeaderSize = 1024
	// FirstChunkSize is the payload capacity of a header-carrying frame.
	FirstChunkSize = PageSize - HeaderSize
)

const pagemapPath = "/proc/self/pagemap"

// Header is what the hypervisor leaves in the page after a poll.
type Header struct {
	// Grab is set when the host has new clipboard content for the guest.
	Grab bool
	// Ungrab is set when the host wants the guest's current clipboard.
	Ungrab bool
	// TotalSize is the full payload length in bytes, meaningful only
	// together with Grab.
	TotalSize uint32
}

type Page struct {
	buf    []byte
	addr   uint64
	mapped bool
}

// New allocates a page-aligned, memory-locked mailbox page and resolves its
// physical address. The page must never move or go away, the hypervisor
// remembers where it is for the lifetime of the process.
func New() (*Page, error) {
	buf, err := unix.Mmap(-1, 0, PageSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_ANONYMOUS|unix.MAP_LOCKED)
	if err != nil {
		return nil, fmt.Errorf("map mailbox page: %w", err)
	}

	addr, err := physAddr(buf)
	if err != nil {
		_ = unix.Munmap(buf)
		return nil, err
	}

	return &Page{buf: buf, addr: addr, mapped: true}, nil
}

// Wrap turns an existing buffer into a Page without a physical address,
// letting tests and tools share one buffer with a simulated peer.
func Wrap(buf []byte) (*Page, error) {
	if len(buf) != PageSize {
		return nil, fmt.Errorf("mailbox page must be %d bytes, got %d", PageSize, len(buf))
	}
	return &Page{buf: buf}, nil
}

// Addr is the physical address registered with the hypervisor.
func (p *Page) Addr() uint64 {
	return p.addr
}

func (p *Page) Close() error {
	if !p.mapped {
		return nil
	}
	p.mapped = false
	buf := p.buf
	p.buf = nil
	return unix.Munmap(buf)
}

// Reset zeroes the page so the hypervisor can write a fresh header.
func (p *Page) Reset() {
	clear(p.buf)
}

// WriteCursor prepares a pull continuation frame: a zeroed page carrying
// the number of bytes the guest has consumed so far in word zero.
func (p *Page) WriteCursor(copyIndex uint32) {
	p.Reset()
	p.setWord(0, copyIndex)
}

// PollHeader decodes the header left by a poll.
func (p *Page) PollHeader() Header {
	return Header{
		Grab:      p.word(1) != 0,
		Ungrab:    p.word(2) != 0,
		TotalSize: p.word(3),
	}
}

// ReadFirstChunk copies out the payload of a header-carrying frame, at most
// FirstChunkSize bytes of the given total.
func (p *Page) ReadFirstChunk(total uint32) []byte {
	n := min(uint32(FirstChunkSize), total)
	chunk := make([]byte, n)
	copy(chunk, p.buf[HeaderSize:])
	return chunk
}

// ReadContChunk copies out the payload of a continuation frame, at most a
// full page of the remaining bytes.
func (p *Page) ReadContChunk(remaining uint32) []byte {
	n := min(uint32(PageSize), remaining)
	chunk := make([]byte, n)
	copy(chunk, p.buf)
	return chunk
}

// WritePushFirst frames the start of a push: the full payload size in word
// zero and as much payload as fits after the header. Returns how many
// payload bytes were framed.
func (p *Page) WritePushFirst(data []byte) int {
	p.setWord(0, uint32(len(data)))
	return copy(p.buf[HeaderSize:], data)
}

// WritePushCont frames a push continuation: payload only, from the top of
// the page. Returns how many bytes were framed.
func (p *Page) WritePushCont(data []byte) int {
	return copy(p.buf, data)
}

func (p *Page) word(i int) uint32 {
	return binary.NativeEndian.Uint32(p.buf[i*4:])
}

func (p *Page) setWord(i int, v uint32) {
	binary.NativeEndian.PutUint32(p.buf[i*4:], v)
}

// physAddr resolves the physical frame behind a mapped buffer through the
// kernel's pagemap interface.
func physAddr(buf []byte) (uint64, error) {
	buf[0] = 0 // fault the page in before asking for its frame

	pagemap, err := os.Open(pagemapPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = pagemap.Close()
	}()

	vaddr := uintptr(unsafe.Pointer(&buf[0]))
	pageSize := uintptr(os.Getpagesize())

	var entry [8]byte
	if _, err = pagemap.ReadAt(entry[:], int64(vaddr/pageSize)*8); err != nil {
		return 0, fmt.Errorf("read pagemap: %w", err)
	}

	word := binary.NativeEndian.Uint64(entry[:])
	if word&(1<<63) == 0 {
		return 0, errors.New("mailbox page is not resident")
	}

	pfn := word & (1<<55 - 1)
	if pfn == 0 {
		return 0, errors.New("page frame number is hidden, run with CAP_SYS_ADMIN")
	}

	return pfn*uint64(pageSize) + uint64(vaddr%pageSize), nil
}
