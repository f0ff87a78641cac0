package mailbox

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func filledPage(t *testing.T) (*Page, []byte) {
	t.Helper()

	buf := make([]byte, PageSize)
	for i := range buf {
		buf[i] = 0xFF
	}

	page, err := Wrap(buf)
	if err != nil {
		t.Fatal(err)
	}

	return page, buf
}

func TestWrapSize(t *testing.T) {
	if _, err := Wrap(make([]byte, 100)); err == nil {
		t.Fatal("expected an error for a short buffer")
	}
	if _, err := Wrap(make([]byte, PageSize)); err != nil {
		t.Fatal(err)
	}
}

func TestWriteCursor(t *testing.T) {
	page, buf := filledPage(t)

	page.WriteCursor(3072)

	if got := binary.NativeEndian.Uint32(buf); got != 3072 {
		t.Fatalf("expected cursor 3072, got %d", got)
	}
	for i := 4; i < PageSize; i++ {
		if buf[i] != 0 {
			t.Fatalf("expected a zeroed page, found %#x at %d", buf[i], i)
		}
	}
}

func TestPollHeader(t *testing.T) {
	page, buf := filledPage(t)
	page.Reset()

	binary.NativeEndian.PutUint32(buf[4:], 1)
	binary.NativeEndian.PutUint32(buf[8:], 0)
	binary.NativeEndian.PutUint32(buf[12:], 5000)

	header := page.PollHeader()
	if !header.Grab || header.Ungrab || header.TotalSize != 5000 {
		t.Fatalf("unexpected header: %+v", header)
	}
}

func TestReadFirstChunk(t *testing.T) {
	page, buf := filledPage(t)

	copy(buf[HeaderSize:], "hello")

	chunk := page.ReadFirstChunk(5)
	if !bytes.Equal(chunk, []byte("hello")) {
		t.Fatalf("expected hello, got %q", chunk)
	}

	if got := len(page.ReadFirstChunk(10000)); got != FirstChunkSize {
		t.Fatalf("expected %d bytes, got %d", FirstChunkSize, got)
	}
}

func TestReadContChunk(t *testing.T) {
	page, _ := filledPage(t)

	if got := len(page.ReadContChunk(100)); got != 100 {
		t.Fatalf("expected 100 bytes, got %d", got)
	}
	if got := len(page.ReadContChunk(10000)); got != PageSize {
		t.Fatalf("expected %d bytes, got %d", PageSize, got)
	}
}

func TestWritePushFirst(t *testing.T) {
	page, buf := filledPage(t)

	data := bytes.Repeat([]byte{0x42}, 4000)
	framed := page.WritePushFirst(data)

	if framed != FirstChunkSize {
		t.Fatalf("expected %d framed bytes, got %d", FirstChunkSize, framed)
	}
	if got := binary.NativeEndian.Uint32(buf); got != 4000 {
		t.Fatalf("expected total 4000, got %d", got)
	}
	if !bytes.Equal(buf[HeaderSize:], data[:FirstChunkSize]) {
		t.Fatal("payload mismatch after the header")
	}

	// small payloads fit entirely
	page.Reset()
	if framed = page.WritePushFirst([]byte("hi")); framed != 2 {
		t.Fatalf("expected 2 framed bytes, got %d", framed)
	}
}

func TestWritePushCont(t *testing.T) {
	page, buf := filledPage(t)

	data := bytes.Repeat([]byte{0x43}, 10000)
	if framed := page.WritePushCont(data); framed != PageSize {
		t.Fatalf("expected a full page, got %d", framed)
	}
	if !bytes.Equal(buf, data[:PageSize]) {
		t.Fatal("payload mismatch")
	}

	if framed := page.WritePushCont([]byte("tail")); framed != 4 {
		t.Fatalf("expected 4 framed bytes, got %d", framed)
	}
}
