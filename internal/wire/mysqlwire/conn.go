package mysqlwire

import (
	"context"
	"io"
	"net"

	u "github.com/araddon/gou"
	"github.com/kr/pretty"

	"github.com/dataux/sqlgateway/internal/backend"
	"github.com/dataux/sqlgateway/models"
)

// Conn is the MySQL session controller: one per accepted connection,
// owning the framing codec, the negotiated capability bitmap, and the
// single bound backend session.
type Conn struct {
	pkg     *PacketIO
	sess    *models.Session
	salt    []byte
	version string
}

// NewConn wraps an accepted net.Conn for the MySQL protocol.
func NewConn(c net.Conn) *Conn {
	return &Conn{
		pkg:  NewPacketIO(c),
		sess: models.NewSession(models.ProtocolMySQL, c),
	}
}

// Session exposes the underlying session; the listener closes it when the
// handshake fails.
func (c *Conn) Session() *models.Session { return c.sess }

// Handshake runs the connection phase: open the backend session, emit
// Handshake v10 with the backend's version string, parse the client's
// HandshakeResponse, and reply OK or ERR.
func (c *Conn) Handshake(ctx context.Context, factory backend.Factory, defaultSchema string) error {
	backendSess, err := factory.Connect(ctx, defaultSchema)
	if err != nil {
		// a real server also answers a refused connection with an ERR as
		// its very first packet
		connErr := NewSqlError(ErGatewayBackendFail, StateGeneral, "could not connect to backend: %v", err)
		c.WriteError(connErr)
		return connErr
	}
	c.sess.Backend = backendSess
	c.sess.Schema = defaultSchema

	c.version = backendSess.ServerVersion()
	if c.version == "" {
		c.version = DefaultServerVersion
	}

	salt, err := RandomBuf(20)
	if err != nil {
		return err
	}
	c.salt = salt

	c.pkg.Sequence = 0
	handshake := BuildInitialHandshake(c.sess.ConnID, c.version, c.salt, StatusAutocommit)
	if err := c.pkg.WritePacket(handshake); err != nil {
		return err
	}

	data, err := c.pkg.ReadPacket()
	if err != nil {
		return err
	}
	resp, err := ParseHandshakeResponse(data)
	if err != nil {
		c.WriteError(err)
		return err
	}
	c.sess.Capability = resp.Capability
	u.Debugf("conn %d: handshake response: %# v", c.sess.ConnID, pretty.Formatter(resp))
	if resp.SSLOnly {
		sslErr := AccessDenied("SSL not supported")
		c.WriteError(sslErr)
		return sslErr
	}

	c.sess.User = resp.User
	if resp.Database != "" && resp.Database != defaultSchema {
		if err := backendSess.SetSchema(ctx, resp.Database); err != nil {
			dbErr := NewSqlError(ErBadDbError, StateGeneral, "Unknown database %q: %v", resp.Database, err)
			c.WriteError(dbErr)
			return dbErr
		}
		c.sess.Schema = resp.Database
	}

	return c.WriteOK(nil)
}

// Run is the blocking command loop: read one frame, dispatch, write the
// response, repeat until quit/EOF/fatal error. Each command from the client
// arrives at sequence 0 and its response series runs from sequence 1, so the
// counter resets once per iteration, before the read.
func (c *Conn) Run(ctx context.Context) {
	defer c.sess.Close()

	for {
		c.pkg.Sequence = 0
		data, err := c.pkg.ReadPacket()
		if err != nil {
			if err != io.EOF {
				u.Debugf("conn %d: read error: %v", c.sess.ConnID, err)
			}
			return
		}

		if len(data) == 0 {
			c.WriteError(NewSqlError(ErUnknownError, StateGeneral, "empty command packet"))
			continue
		}

		quit, err := c.dispatch(ctx, data)
		if err != nil {
			c.WriteError(err)
		}
		if quit || c.sess.Closed() {
			return
		}
	}
}

// WriteOK emits the OK packet.
func (c *Conn) WriteOK(r *OKResult) error {
	if r == nil {
		r = &OKResult{Status: StatusAutocommit}
	}
	data := make([]byte, 0, 16)
	data = append(data, OKHeader)
	data = append(data, PutLengthEncodedInt(r.AffectedRows)...)
	data = append(data, PutLengthEncodedInt(r.LastInsertID)...)
	data = append(data, Uint16ToBytes(r.Status)...)
	data = append(data, Uint16ToBytes(r.Warnings)...)
	return c.pkg.WritePacket(data)
}

// WriteError emits the ERR packet, converting any error into the wire
// shape; this is the single place an error becomes a protocol message.
func (c *Conn) WriteError(err error) error {
	se, ok := err.(*SqlError)
	if !ok {
		se = NewSqlError(ErUnknownError, StateGeneral, "%v", err)
	}
	data := make([]byte, 0, 16+len(se.Message))
	data = append(data, ErrHeader)
	data = append(data, byte(se.Code), byte(se.Code>>8))
	if c.sess.Capability&ClientProtocol41 != 0 {
		data = append(data, '#')
		data = append(data, se.State...)
	}
	data = append(data, se.Message...)
	return c.pkg.WritePacket(data)
}

// WriteEOF emits the EOF packet: always exactly 5 bytes of payload so it
// can't be confused with a row starting 0xFE.
func (c *Conn) WriteEOF(status uint16) error {
	data := make([]byte, 0, 5)
	data = append(data, EOFHeader)
	data = append(data, 0, 0)
	data = append(data, Uint16ToBytes(status)...)
	return c.pkg.WritePacket(data)
}

// WriteResultSet streams a backend.Result as the ResultSet response
// shape: column-count, column-defs, EOF, rows, EOF.
func (c *Conn) WriteResultSet(res *backend.Result) error {
	if err := c.pkg.WritePacket(PutLengthEncodedInt(uint64(len(res.Columns)))); err != nil {
		return err
	}
	for _, col := range res.Columns {
		if err := c.pkg.WritePacket(EncodeColumnDef(col)); err != nil {
			return err
		}
	}
	if err := c.WriteEOF(StatusAutocommit); err != nil {
		return err
	}

	if res.Rows != nil {
		defer res.Rows.Close()
		for res.Rows.Next() {
			row, err := res.Rows.Scan()
			if err != nil {
				return err
			}
			if err := c.pkg.WritePacket(EncodeRow(row)); err != nil {
				return err
			}
		}
		if err := res.Rows.Err(); err != nil {
			return err
		}
	}
	return c.WriteEOF(StatusAutocommit)
}

// OKResult is the payload for WriteOK.
type OKResult struct {
	AffectedRows uint64
	LastInsertID uint64
	Status       uint16
	Warnings     uint16
}
