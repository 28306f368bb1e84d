package mysqlwire

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// PacketIO frames the MySQL wire protocol over a net.Conn: 3-byte
// little-endian payload length, 1-byte sequence id, then the payload.
// https://dev.mysql.com/doc/internals/en/mysql-packet.html
type PacketIO struct {
	conn     net.Conn
	r        *bufio.Reader
	Sequence byte
}

// NewPacketIO wraps conn for framed packet IO.
func NewPacketIO(conn net.Conn) *PacketIO {
	return &PacketIO{conn: conn, r: bufio.NewReaderSize(conn, 4096)}
}

// ReadPacket reads one logical message, transparently reassembling
// maximum-length segments (a payload length of 2^24-1 signals that another
// segment follows).
func (p *PacketIO) ReadPacket() ([]byte, error) {
	var buf bytes.Buffer
	for {
		header := make([]byte, 4)
		if _, err := io.ReadFull(p.r, header); err != nil {
			return nil, err
		}
		length := int(header[0]) | int(header[1])<<8 | int(header[2])<<16
		seq := header[3]
		if seq != p.Sequence {
			return nil, fmt.Errorf("mysqlwire: packet sequence mismatch: got %d want %d", seq, p.Sequence)
		}
		p.Sequence++

		if length > 0 {
			chunk := make([]byte, length)
			if _, err := io.ReadFull(p.r, chunk); err != nil {
				return nil, err
			}
			buf.Write(chunk)
		}

		if length < MaxPacketSize {
			break
		}
		// length == MaxPacketSize: this segment is full, more follow.
	}
	return buf.Bytes(), nil
}

// WritePacket writes data as one or more physical frames, splitting into
// MaxPacketSize segments when data is large enough to need it. The
// gateway's own payloads never are, but the writer stays correct for any
// caller.
func (p *PacketIO) WritePacket(data []byte) error {
	for {
		length := len(data)
		if length > MaxPacketSize {
			length = MaxPacketSize
		}

		header := make([]byte, 4)
		header[0] = byte(length)
		header[1] = byte(length >> 8)
		header[2] = byte(length >> 16)
		header[3] = p.Sequence

		if _, err := p.conn.Write(header); err != nil {
			return err
		}
		if length > 0 {
			if _, err := p.conn.Write(data[:length]); err != nil {
				return err
			}
		}
		p.Sequence++

		data = data[length:]
		if length < MaxPacketSize {
			return nil
		}
	}
}

// --- lenenc / primitive encodings ---
// https://dev.mysql.com/doc/internals/en/integer.html

// ReadLengthEncodedInt decodes a lenenc int from data starting at pos,
// returning the value, whether it was NULL (0xFB marker), and the new pos.
func ReadLengthEncodedInt(data []byte, pos int) (value uint64, isNull bool, newPos int) {
	if pos >= len(data) {
		return 0, true, pos
	}
	switch b := data[pos]; {
	case b < 0xFB:
		return uint64(b), false, pos + 1
	case b == 0xFB:
		return 0, true, pos + 1
	case b == 0xFC:
		return uint64(binary.LittleEndian.Uint16(data[pos+1 : pos+3])), false, pos + 3
	case b == 0xFD:
		v := uint64(data[pos+1]) | uint64(data[pos+2])<<8 | uint64(data[pos+3])<<16
		return v, false, pos + 4
	case b == 0xFE:
		return binary.LittleEndian.Uint64(data[pos+1 : pos+9]), false, pos + 9
	default: // 0xFF reserved as an error marker in column-value position
		return 0, true, pos + 1
	}
}

// PutLengthEncodedInt encodes n as a lenenc int.
func PutLengthEncodedInt(n uint64) []byte {
	switch {
	case n <= 0xFB-1:
		return []byte{byte(n)}
	case n <= 0xFFFF:
		return []byte{0xFC, byte(n), byte(n >> 8)}
	case n <= 0xFFFFFF:
		return []byte{0xFD, byte(n), byte(n >> 8), byte(n >> 16)}
	default:
		b := make([]byte, 9)
		b[0] = 0xFE
		binary.LittleEndian.PutUint64(b[1:], n)
		return b
	}
}

// ReadLengthEncodedString decodes a lenenc string from data at pos.
func ReadLengthEncodedString(data []byte, pos int) (value []byte, isNull bool, newPos int) {
	length, isNull, pos := ReadLengthEncodedInt(data, pos)
	if isNull {
		return nil, true, pos
	}
	end := pos + int(length)
	if end > len(data) {
		end = len(data)
	}
	return data[pos:end], false, end
}

// PutLengthEncodedString encodes s as a lenenc string.
func PutLengthEncodedString(s []byte) []byte {
	data := PutLengthEncodedInt(uint64(len(s)))
	return append(data, s...)
}

// ReadNulString reads bytes up to and consuming a trailing NUL.
func ReadNulString(data []byte, pos int) (value []byte, newPos int) {
	end := bytes.IndexByte(data[pos:], 0)
	if end < 0 {
		return data[pos:], len(data)
	}
	return data[pos : pos+end], pos + end + 1
}

// Uint16ToBytes encodes n little-endian.
func Uint16ToBytes(n uint16) []byte {
	return []byte{byte(n), byte(n >> 8)}
}

// Uint32ToBytes encodes n little-endian.
func Uint32ToBytes(n uint32) []byte {
	return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
}
