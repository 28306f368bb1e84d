package pgwire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// MaxMessageSize caps a single client message at the same 16 MB ceiling the
// MySQL side enforces; a larger claimed length closes the session.
const MaxMessageSize = 1<<24 - 1

// FrameIO reads and writes PostgreSQL protocol messages. Startup-phase
// frames carry no type tag (4-byte length then payload); every message
// after that carries a 1-byte tag first.
type FrameIO struct {
	conn net.Conn
	r    *bufio.Reader
}

// NewFrameIO wraps conn for framed message IO.
func NewFrameIO(conn net.Conn) *FrameIO {
	return &FrameIO{conn: conn, r: bufio.NewReaderSize(conn, 4096)}
}

// ReadStartupFrame reads one untagged, length-prefixed frame: the length
// field includes itself.
func (f *FrameIO) ReadStartupFrame() ([]byte, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(f.r, lenBuf); err != nil {
		return nil, err
	}
	length := int(binary.BigEndian.Uint32(lenBuf))
	if length < 4 {
		return nil, io.ErrUnexpectedEOF
	}
	if length-4 > MaxMessageSize {
		return nil, fmt.Errorf("pgwire: startup message of %d bytes exceeds limit", length)
	}
	payload := make([]byte, length-4)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ReadMessage reads one tagged post-startup message: 1-byte tag, 4-byte
// length (including itself), payload.
func (f *FrameIO) ReadMessage() (ClientMessageType, []byte, error) {
	head := make([]byte, 5)
	if _, err := io.ReadFull(f.r, head); err != nil {
		return 0, nil, err
	}
	tag := ClientMessageType(head[0])
	length := int(binary.BigEndian.Uint32(head[1:5]))
	if length < 4 {
		return 0, nil, io.ErrUnexpectedEOF
	}
	if length-4 > MaxMessageSize {
		return 0, nil, fmt.Errorf("pgwire: message of %d bytes exceeds limit", length)
	}
	payload := make([]byte, length-4)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		return 0, nil, err
	}
	return tag, payload, nil
}

// WriteMessage writes one tagged server message.
func (f *FrameIO) WriteMessage(tag ServerMessageType, payload []byte) error {
	buf := make([]byte, 0, 5+len(payload))
	buf = append(buf, byte(tag))
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(4+len(payload)))
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, payload...)
	_, err := f.conn.Write(buf)
	return err
}

// WriteRaw writes bytes with no framing, used only for the single-byte 'N'
// SSL-refusal reply, which precedes any tagged message.
func (f *FrameIO) WriteRaw(b []byte) error {
	_, err := f.conn.Write(b)
	return err
}

// --- payload encoding helpers ---

func putInt16(buf []byte, n int16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(n))
	return append(buf, b[:]...)
}

func putInt32(buf []byte, n int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	return append(buf, b[:]...)
}

func putCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

// readCString reads a NUL-terminated string from data at pos.
func readCString(data []byte, pos int) (value string, newPos int) {
	end := pos
	for end < len(data) && data[end] != 0 {
		end++
	}
	if end >= len(data) {
		return string(data[pos:]), len(data)
	}
	return string(data[pos:end]), end + 1
}
