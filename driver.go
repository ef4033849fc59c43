package bolt

import (
	"os"

	"github.com/graphkit/bolt/log"
)

var (
	magicPreamble = []byte{0x60, 0x60, 0xb0, 0x17}
	// The handshake proposes four versions. Only version 1 is spoken, so
	// the remaining three slots are zeroed out.
	supportedVersions = []byte{
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	noVersionSupported = []byte{0x00, 0x00, 0x00, 0x00}
	version            = "1.0"

	// ClientID is the client identifier reported to the server when the
	// session is initialized
	ClientID = "GraphkitBolt/" + version
)

func init() {
	if level := os.Getenv("BOLT_LOG"); level != "" {
		log.SetLevel(level)
	}
}

// Driver creates connections to a bolt server
type Driver interface {
	// Open opens a connection to the server at the location described by
	// the connection string and takes it all the way to a usable state
	Open(connStr string) (Conn, error)
}

type boltDriver struct{}

// NewDriver creates a new Driver object
func NewDriver() Driver {
	return &boltDriver{}
}

// Open opens a new bolt connection to the server described by connStr
func (d *boltDriver) Open(connStr string) (Conn, error) {
	c, err := newBoltConn(connStr)
	if err != nil {
		return nil, err
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}
