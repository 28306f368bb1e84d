package mysqlwire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLengthEncodedIntRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 0xFA, 0xFB, 0xFC, 0xFF, 0x100, 0xFFFF,
		0x10000, 0xFFFFFF, 0x1000000, 1 << 32, 1 << 63, ^uint64(0),
	}
	for _, v := range values {
		encoded := PutLengthEncodedInt(v)
		got, isNull, pos := ReadLengthEncodedInt(encoded, 0)
		assert.False(t, isNull, "v=%d", v)
		assert.Equal(t, v, got, "v=%d", v)
		assert.Equal(t, len(encoded), pos, "v=%d must consume the whole encoding", v)
	}
}

func TestLengthEncodedIntWidths(t *testing.T) {
	assert.Len(t, PutLengthEncodedInt(0xFA), 1)
	assert.Len(t, PutLengthEncodedInt(0xFB), 3)
	assert.Len(t, PutLengthEncodedInt(0xFFFF), 3)
	assert.Len(t, PutLengthEncodedInt(0x10000), 4)
	assert.Len(t, PutLengthEncodedInt(0xFFFFFF), 4)
	assert.Len(t, PutLengthEncodedInt(0x1000000), 9)
}

func TestLengthEncodedIntNullMarker(t *testing.T) {
	_, isNull, pos := ReadLengthEncodedInt([]byte{0xFB}, 0)
	assert.True(t, isNull)
	assert.Equal(t, 1, pos)
}

func TestLengthEncodedString(t *testing.T) {
	encoded := PutLengthEncodedString([]byte("demo"))
	assert.Equal(t, []byte{0x04, 'd', 'e', 'm', 'o'}, encoded)

	value, isNull, pos := ReadLengthEncodedString(encoded, 0)
	assert.False(t, isNull)
	assert.Equal(t, "demo", string(value))
	assert.Equal(t, 5, pos)
}

func TestReadNulString(t *testing.T) {
	data := []byte("root\x00rest")
	value, pos := ReadNulString(data, 0)
	assert.Equal(t, "root", string(value))
	assert.Equal(t, 5, pos)

	// missing terminator consumes the remainder
	value, pos = ReadNulString([]byte("abc"), 0)
	assert.Equal(t, "abc", string(value))
	assert.Equal(t, 3, pos)
}

func TestPacketIORoundTrip(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	server := NewPacketIO(serverSide)
	client := NewPacketIO(clientSide)

	go func() {
		server.WritePacket([]byte{0x0E})
		server.WritePacket([]byte("second"))
	}()

	data, err := client.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0E}, data)

	data, err = client.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.Equal(t, byte(2), client.Sequence)
}

func TestPacketIOSequenceMismatch(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	go func() {
		// header claims sequence 5 while the reader expects 0
		clientSide.Write([]byte{1, 0, 0, 5, 0x0E})
	}()

	server := NewPacketIO(serverSide)
	_, err := server.ReadPacket()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence mismatch")
}

func TestPacketIOLargePayloadSegmentation(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()

	payload := make([]byte, MaxPacketSize+10)
	payload[0] = 0xAB
	payload[MaxPacketSize] = 0xCD
	payload[len(payload)-1] = 0xEF

	go NewPacketIO(serverSide).WritePacket(payload)

	got, err := NewPacketIO(clientSide).ReadPacket()
	require.NoError(t, err)
	require.Len(t, got, len(payload))
	assert.Equal(t, byte(0xAB), got[0])
	assert.Equal(t, byte(0xCD), got[MaxPacketSize])
	assert.Equal(t, byte(0xEF), got[len(got)-1])
}
