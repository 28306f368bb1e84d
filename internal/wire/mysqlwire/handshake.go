package mysqlwire

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
)

// RandomBuf returns n cryptographically random bytes containing no NUL
// byte. Every session generates its own scramble at handshake time; the
// auth-plugin-data fields must never be shared across connections.
func RandomBuf(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	for i, b := range buf {
		for b == 0 {
			one := make([]byte, 1)
			if _, err := rand.Read(one); err != nil {
				return nil, err
			}
			b = one[0]
		}
		buf[i] = b
	}
	return buf, nil
}

// HandshakeResponse is the parsed payload of the client's
// HandshakeResponse41.
// https://dev.mysql.com/doc/internals/en/connection-phase-packets.html
type HandshakeResponse struct {
	Capability     uint32
	MaxPacketSize  uint32
	Charset        byte
	User           string
	Auth           []byte
	Database       string
	AuthPluginName string
	SSLOnly        bool // true when this is the 32-byte CLIENT_SSL short packet
}

// ParseHandshakeResponse decodes a HandshakeResponse41, including the
// 32-byte CLIENT_SSL short-packet branch and the
// PLUGIN_AUTH_LENENC_CLIENT_DATA password-length branch.
func ParseHandshakeResponse(data []byte) (*HandshakeResponse, error) {
	if len(data) < 32 {
		return nil, NewSqlError(ErUnknownError, StateGeneral, "handshake response too short")
	}

	r := &HandshakeResponse{}
	r.Capability = binary.LittleEndian.Uint32(data[0:4])
	r.MaxPacketSize = binary.LittleEndian.Uint32(data[4:8])
	r.Charset = data[8]

	if len(data) == 32 && r.Capability&ClientSSL != 0 {
		r.SSLOnly = true
		return r, nil
	}

	pos := 32 // 4 + 4 + 1 + 23 reserved bytes
	if pos > len(data) {
		return nil, NewSqlError(ErUnknownError, StateGeneral, "handshake response truncated")
	}

	user, pos2 := ReadNulString(data, pos)
	r.User = string(user)
	pos = pos2

	if r.Capability&ClientPluginAuthLenencClientData != 0 {
		auth, _, newPos := ReadLengthEncodedString(data, pos)
		r.Auth = auth
		pos = newPos
	} else {
		if pos >= len(data) {
			return r, nil
		}
		authLen := int(data[pos])
		pos++
		end := pos + authLen
		if end > len(data) {
			end = len(data)
		}
		r.Auth = data[pos:end]
		pos = end
	}

	if r.Capability&ClientConnectWithDB != 0 && pos < len(data) {
		db, newPos := ReadNulString(data, pos)
		r.Database = string(db)
		pos = newPos
	}

	if r.Capability&ClientPluginAuth != 0 && pos < len(data) {
		plugin, newPos := ReadNulString(data, pos)
		r.AuthPluginName = string(plugin)
		pos = newPos
	}

	return r, nil
}

// BuildInitialHandshake encodes the server->client Handshake v10 packet.
func BuildInitialHandshake(connID uint32, serverVersion string, salt []byte, status uint16) []byte {
	if len(salt) < 20 {
		padded := make([]byte, 20)
		copy(padded, salt)
		salt = padded
	}

	data := make([]byte, 0, 128)
	data = append(data, 10) // protocol version
	data = append(data, serverVersion...)
	data = append(data, 0)
	data = append(data, Uint32ToBytes(connID)...)
	data = append(data, salt[0:8]...) // auth-plugin-data-part-1
	data = append(data, 0)            // filler
	data = append(data, byte(ServerCapabilities&0xFF), byte((ServerCapabilities>>8)&0xFF))
	data = append(data, DefaultCollationID)
	data = append(data, Uint16ToBytes(status)...)
	data = append(data, byte((ServerCapabilities>>16)&0xFF), byte((ServerCapabilities>>24)&0xFF))
	data = append(data, 21) // auth-plugin-data length
	data = append(data, make([]byte, 10)...)
	data = append(data, salt[8:20]...) // auth-plugin-data-part-2
	data = append(data, 0)
	data = append(data, AuthPluginName...)
	data = append(data, 0)
	return data
}

// containsNul reports whether b has a zero byte, used by tests asserting
// the salt generator's no-NUL invariant.
func containsNul(b []byte) bool { return bytes.IndexByte(b, 0) >= 0 }
