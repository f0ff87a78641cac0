// Package bridge drives the mailbox protocol between guest and hypervisor:
// it polls the doorbell port for clipboard events and moves payloads
// through the shared page, chunk by chunk, in either direction.
package bridge

import (
	"fmt"
	"time"

	"github.com/allape/gogger"
	"github.com/allape/vmclipd/bridge/clipboard"
	"github.com/allape/vmclipd/bridge/mailbox"
	"github.com/allape/vmclipd/bridge/port"
)

var l = gogger.New("bridge")

// Command words understood by the hypervisor. The values are part of the
// wire protocol and must not change.
const (
	CmdRegister  uint32 = 2
	CmdPoll      uint32 = 4
	CmdPullCont  uint32 = 5
	CmdPushFirst uint32 = 6
	CmdPushCont  uint32 = 7
)

const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultMaxTransfer  = 4 * 1024 * 1024
)

type Options struct {
	PollInterval time.Duration
	// MaxTransfer caps a single transfer in either direction. Pulls above
	// the cap are refused without touching the clipboard, clipboard reads
	// are truncated to fit below it.
	MaxTransfer uint32
}

// transfer is the cursor state of the one in-flight transfer. At most one
// direction is active between a poll and its completion.
type transfer struct {
	grab       bool
	ungrab     bool
	total      uint32
	copyIndex  uint32
	needToCopy uint32
}

type Bridge struct {
	Gate      port.Gate
	Page      *mailbox.Page
	Clipboard clipboard.Driver
	Options   Options
}

func New(gate port.Gate, page *mailbox.Page, cd clipboard.Driver, options *Options) *Bridge {
	if options == nil {
		options = &Options{}
	}
	if options.PollInterval == 0 {
		options.PollInterval = DefaultPollInterval
	}
	if options.MaxTransfer == 0 {
		options.MaxTransfer = DefaultMaxTransfer
	}

	return &Bridge{
		Gate:      gate,
		Page:      page,
		Clipboard: cd,
		Options:   *options,
	}
}

// Register tells the hypervisor where the mailbox page lives. The address
// is latched from three positional writes, no status is read in between.
func (b *Bridge) Register() error {
	addr := b.Page.Addr()

	l.Verbose().Println("registering mailbox page at", fmt.Sprintf("%#x", addr))

	for _, word := range []uint32{CmdRegister, uint32(addr), uint32(addr >> 32)} {
		if err := b.Gate.Issue(word); err != nil {
			return fmt.Errorf("register mailbox page: %w", err)
		}
	}

	return nil
}

// sync issues one command and reads back its completion status. A false
// return means the hypervisor refused the step, not that the channel broke.
func (b *Bridge) sync(cmd uint32) (bool, error) {
	if err := b.Gate.Issue(cmd); err != nil {
		return false, err
	}

	status, err := b.Gate.Status()
	if err != nil {
		return false, err
	}

	return status == 0, nil
}

// poll asks the hypervisor for pending clipboard events.
func (b *Bridge) poll() (transfer, error) {
	b.Page.Reset()

	ok, err := b.sync(CmdPoll)
	if err != nil {
		return transfer{}, err
	}
	if !ok {
		return transfer{}, nil
	}

	header := b.Page.PollHeader()

	t := transfer{grab: header.Grab, ungrab: header.Ungrab}
	if t.grab {
		t.total = header.TotalSize
	}

	return t, nil
}

// pull drains the host-to-guest transfer the last poll announced. The
// first chunk is already on the page behind the poll header, the rest is
// fetched with continuation commands carrying the cursor. The hypervisor
// fills the page even when it flags a continuation, so chunks are consumed
// regardless of the status word.
func (b *Bridge) pull(t *transfer) ([]byte, error) {
	if t.total > b.Options.MaxTransfer {
		return nil, fmt.Errorf("host offered %d bytes, limit is %d", t.total, b.Options.MaxTransfer)
	}

	data := make([]byte, 0, t.total)

	chunk := b.Page.ReadFirstChunk(t.total)
	data = append(data, chunk...)
	t.copyIndex = uint32(len(chunk))
	t.needToCopy = t.total - t.copyIndex

	for t.needToCopy > 0 {
		b.Page.WriteCursor(t.copyIndex)
		if _, err := b.sync(CmdPullCont); err != nil {
			return nil, err
		}

		chunk = b.Page.ReadContChunk(t.needToCopy)
		data = append(data, chunk...)
		t.copyIndex += uint32(len(chunk))
		t.needToCopy -= uint32(len(chunk))
	}

	l.Verbose().Println("pulled", len(data), "bytes from host")

	return data, nil
}

// push offers the guest clipboard to the host. A refused first frame
// abandons the transfer, the host re-raises its request on a later poll if
// it still wants the content. A refused continuation is resent with the
// same bytes at the same cursor.
func (b *Bridge) push(data []byte) error {
	t := transfer{total: uint32(len(data))}

	framed := b.Page.WritePushFirst(data)
	ok, err := b.sync(CmdPushFirst)
	if err != nil {
		return err
	}
	if !ok {
		l.Warn().Println("host refused clipboard offer of", len(data), "bytes")
		return nil
	}

	t.copyIndex = uint32(framed)
	t.needToCopy = t.total - t.copyIndex

	for t.needToCopy > 0 {
		framed = b.Page.WritePushCont(data[t.copyIndex:])

		ok, err := b.sync(CmdPushCont)
		if err != nil {
			return err
		}
		if !ok {
			// resend the same chunk
			continue
		}

		t.copyIndex += uint32(framed)
		t.needToCopy -= uint32(framed)
	}

	l.Verbose().Println("pushed", len(data), "bytes to host")

	return nil
}

// readClipboard reads the local selection, truncates it to what a transfer
// can carry and appends the NUL the host expects at the end.
func (b *Bridge) readClipboard() ([]byte, error) {
	data, err := b.Clipboard.Read()
	if err != nil {
		return nil, err
	}

	limit := int(b.Options.MaxTransfer) - 1
	if len(data) > limit {
		l.Warn().Println("clipboard has", len(data), "bytes, truncating to", limit)
		data = data[:limit]
	}

	return append(data, 0), nil
}

// Tick runs one protocol iteration: a poll, then whichever transfer the
// host asked for. A pull wins over a simultaneous clipboard request, the
// host re-raises the dropped request on a later poll. Reports whether the
// poll found anything to do.
func (b *Bridge) Tick() (bool, error) {
	t, err := b.poll()
	if err != nil {
		return false, err
	}

	switch {
	case t.grab:
		data, err := b.pull(&t)
		if err != nil {
			return true, err
		}
		return true, b.Clipboard.Write(data)
	case t.ungrab:
		data, err := b.readClipboard()
		if err != nil {
			return true, err
		}
		return true, b.push(data)
	}

	return false, nil
}

// Serve polls until stop is closed. Transfer failures are logged and the
// loop returns to polling, nothing recoverable escapes here.
func (b *Bridge) Serve(stop <-chan struct{}) error {
	for {
		busy, err := b.Tick()
		if err != nil {
			l.Error().Println("sync:", err)
		}

		if busy && err == nil {
			select {
			case <-stop:
				return nil
			default:
			}
			continue
		}

		select {
		case <-stop:
			return nil
		case <-time.After(b.Options.PollInterval):
		}
	}
}
