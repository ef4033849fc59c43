package bolt

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/graphkit/bolt/encoding"
	"github.com/graphkit/bolt/errors"
	"github.com/graphkit/bolt/log"
	"github.com/graphkit/bolt/structures/messages"
)

// Connection states. A connection moves forward through the first four
// while it is being established, then bounces between ready and busy for
// every request it serves. A server failure parks it in failed until
// acknowledged or reset.
const (
	connDisconnected = iota // Transport not established or already closed
	connHandshaking         // Version negotiation in flight
	connInitializing        // Session initialization in flight
	connReady               // Idle, able to accept a request
	connBusy                // Request sent, draining its responses
	connFailed              // Server failure pending acknowledgement
)

// stateNames maps connection states to the names used in errors and logs
var stateNames = map[int]string{
	connDisconnected: "disconnected",
	connHandshaking:  "handshaking",
	connInitializing: "initializing",
	connReady:        "ready",
	connBusy:         "busy",
	connFailed:       "failed",
}

// Conn represents a connection to the bolt server.
//
// The protocol is strictly half duplex: a request is sent, then every
// response to it is drained before the next request goes out. Conn
// objects, and any transactions made from them, ARE NOT THREAD SAFE.
// To use the client from multiple goroutines, open a connection per
// goroutine or use a DriverPool.
type Conn interface {
	// Run executes a statement against the server and drains its full
	// record stream before returning
	Run(statement string, params map[string]interface{}) (*Result, error)
	// Exec executes a statement telling the server to discard its
	// records, returning the trailing summary metadata
	Exec(statement string, params map[string]interface{}) (map[string]interface{}, error)
	// Begin opens an explicit transaction
	Begin() (Tx, error)
	// AckFailure acknowledges a pending server failure, making the
	// connection usable again
	AckFailure() error
	// Reset returns the connection to a clean state no matter what it
	// was doing
	Reset() error
	// Close closes the connection. Safe to call more than once.
	Close() error
	// SetChunkSize sets the maximum payload carried per chunk on outgoing
	// messages
	SetChunkSize(uint16)
	// SetTimeout sets the read/write deadline applied to every exchange
	// with the server
	SetTimeout(time.Duration)
}

type boltConn struct {
	connStr       string
	url           *url.URL
	user          string
	password      string
	conn          net.Conn
	serverVersion []byte
	serverInfo    string
	timeout       time.Duration
	chunkSize     uint16
	state         int
	transaction   *boltTx
}

// newBoltConn parses the connection string and prepares an unconnected
// boltConn from it
func newBoltConn(connStr string) (*boltConn, error) {
	parsed, err := url.Parse(connStr)
	if err != nil {
		return nil, errors.Wrap(err, "An error occurred parsing bolt connection string")
	} else if strings.ToLower(parsed.Scheme) != "bolt" {
		return nil, errors.New("Unsupported connection string scheme: %s. Driver only supports 'bolt' scheme.", parsed.Scheme)
	}

	c := &boltConn{
		connStr: connStr,
		url:     parsed,
		// Default to 10 second timeout
		timeout:   time.Second * time.Duration(10),
		chunkSize: math.MaxUint16,
	}

	if parsed.User != nil {
		c.user = parsed.User.Username()
		c.password, _ = parsed.User.Password()
	}

	if timeout := parsed.Query().Get("timeout"); timeout != "" {
		timeoutInt, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, errors.New("Invalid format for timeout: %s. Must be an integer number of seconds", timeout)
		}
		c.timeout = time.Duration(timeoutInt) * time.Second
	}

	return c, nil
}

// connect dials the server and takes the connection all the way to the
// ready state. Any failure along the way closes the transport.
func (c *boltConn) connect() error {
	conn, err := net.DialTimeout("tcp", c.url.Host, c.timeout)
	if err != nil {
		return errors.NewTransportError(errors.PhaseHandshake, err)
	}
	c.conn = conn
	return c.establish()
}

// establish negotiates the protocol and initializes the session over an
// already attached transport
func (c *boltConn) establish() error {
	if err := c.handshake(); err != nil {
		c.kill()
		return err
	}
	if err := c.initialize(); err != nil {
		c.kill()
		return err
	}
	return nil
}

// handshake negotiates the protocol version with the server. Only
// version 1 is proposed, so only version 1 can be agreed on.
func (c *boltConn) handshake() error {
	c.state = connHandshaking

	if _, err := c.Write(magicPreamble); err != nil {
		return errors.NewHandshakeError(nil, err)
	}
	if _, err := c.Write(supportedVersions); err != nil {
		return errors.NewHandshakeError(nil, err)
	}

	c.serverVersion = make([]byte, 4)
	n, err := io.ReadFull(c, c.serverVersion)
	if err != nil {
		return errors.NewHandshakeError(c.serverVersion[:n], err)
	}

	if bytes.Equal(c.serverVersion, noVersionSupported) {
		log.Errorf("Server responded with no supported version")
		return errors.NewHandshakeError(c.serverVersion, nil)
	}
	if version := binary.BigEndian.Uint32(c.serverVersion); version != 1 {
		log.Errorf("Server agreed on unsupported version: %d", version)
		return errors.NewHandshakeError(c.serverVersion, nil)
	}

	log.Infof("Agreed on version %x with server", c.serverVersion)
	return nil
}

// initialize sends the INIT message and waits for the server to either
// welcome or reject the session
func (c *boltConn) initialize() error {
	c.state = connInitializing

	initMessage := messages.NewInitMessage(ClientID, c.user, c.password)
	if err := encoding.NewEncoder(c, c.chunkSize).Encode(initMessage); err != nil {
		return errors.Classify(errors.PhaseInit, err)
	}

	respInt, err := encoding.NewDecoder(c).Decode()
	if err != nil {
		return errors.Classify(errors.PhaseInit, err)
	}

	switch resp := respInt.(type) {
	case messages.SuccessMessage:
		log.Infof("Successfully initialized bolt session: %#v", resp)
		c.serverInfo, _ = resp.Metadata["server"].(string)
		c.state = connReady
		return nil
	case messages.FailureMessage:
		log.Warnf("Server rejected credentials initializing bolt session: %#v", resp.Metadata)
		c.state = connFailed
		return errors.NewAuthenticationError(resp.Metadata)
	default:
		c.state = connFailed
		return errors.NewProtocolError(errors.PhaseInit, "Unrecognized response initializing bolt session: %#v", resp)
	}
}

// Read reads the data from the underlying connection, applying the
// configured deadline
func (c *boltConn) Read(b []byte) (n int, err error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}

	n, err = c.conn.Read(b)
	if log.Level >= log.TraceLevel {
		log.Tracef("Read %d bytes from stream:\n\n%s\n", n, sprintByteHex(b[:n]))
	}
	if err != nil && err != io.EOF {
		log.Errorf("An error occurred reading from stream: %s", err)
	}
	return n, err
}

// Write writes the data to the underlying connection, applying the
// configured deadline
func (c *boltConn) Write(b []byte) (n int, err error) {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}

	n, err = c.conn.Write(b)
	if log.Level >= log.TraceLevel {
		log.Tracef("Wrote %d of %d bytes to stream:\n\n%s\n", n, len(b), sprintByteHex(b[:n]))
	}
	if err != nil {
		log.Errorf("An error occurred writing to stream: %s", err)
	}
	return n, err
}

// Run executes a statement against the server and drains its full
// record stream before returning
func (c *boltConn) Run(statement string, params map[string]interface{}) (*Result, error) {
	return c.run(statement, params, false)
}

// Exec executes a statement telling the server to discard its records,
// returning the trailing summary metadata
func (c *boltConn) Exec(statement string, params map[string]interface{}) (map[string]interface{}, error) {
	result, err := c.run(statement, params, true)
	if err != nil {
		return nil, err
	}
	return result.Summary, nil
}

func (c *boltConn) run(statement string, params map[string]interface{}, discard bool) (*Result, error) {
	if c.state != connReady {
		return nil, errors.New("Cannot run a statement on a connection in %s state", stateNames[c.state])
	}

	log.Infof("Running statement: %s", statement)
	c.state = connBusy

	// The statement and its drain request are encoded up front so an
	// unencodable parameter fails before anything reaches the wire
	batch, err := c.encodeStatement(statement, params, discard)
	if err != nil {
		c.state = connReady
		return nil, errors.Wrap(err, "An error occurred encoding statement")
	}
	if _, err := c.Write(batch); err != nil {
		c.kill()
		return nil, errors.Classify(errors.PhaseRun, err)
	}

	decoder := encoding.NewDecoder(c)
	leadInt, err := decoder.Decode()
	if err != nil {
		c.kill()
		return nil, errors.Classify(errors.PhaseRun, err)
	}

	result := &Result{}
	switch lead := leadInt.(type) {
	case messages.SuccessMessage:
		log.Infof("Got success message running statement: %#v", lead)
		result.Metadata = lead.Metadata
	case messages.FailureMessage:
		log.Errorf("Got failure message running statement: %#v", lead)
		c.state = connFailed
		return nil, errors.NewServerFailure(lead.Metadata)
	default:
		c.kill()
		return nil, errors.NewProtocolError(errors.PhaseRun, "Unrecognized response running statement: %#v", lead)
	}

	for {
		respInt, err := decoder.Decode()
		if err != nil {
			c.kill()
			return nil, errors.Classify(errors.PhaseRecv, err)
		}

		switch resp := respInt.(type) {
		case messages.RecordMessage:
			if discard {
				c.kill()
				return nil, errors.NewProtocolError(errors.PhaseRecv, "Got a record while discarding statement results: %#v", resp)
			}
			result.Records = append(result.Records, resp.Fields)
		case messages.SuccessMessage:
			log.Infof("Got success message draining statement: %#v", resp)
			result.Summary = resp.Metadata
			c.state = connReady
			return result, nil
		case messages.FailureMessage:
			log.Errorf("Got failure message draining statement: %#v", resp)
			c.state = connFailed
			return nil, errors.NewServerFailure(resp.Metadata)
		default:
			c.kill()
			return nil, errors.NewProtocolError(errors.PhaseRecv, "Unrecognized response draining statement: %#v", resp)
		}
	}
}

// encodeStatement chunks the statement and its drain request into a
// single batch, so both messages leave in one transmission
func (c *boltConn) encodeStatement(statement string, params map[string]interface{}, discard bool) ([]byte, error) {
	var batch bytes.Buffer
	encoder := encoding.NewEncoder(&batch, c.chunkSize)

	if err := encoder.Encode(messages.NewRunMessage(statement, params)); err != nil {
		return nil, err
	}
	if discard {
		if err := encoder.Encode(messages.NewDiscardAllMessage()); err != nil {
			return nil, err
		}
	} else {
		if err := encoder.Encode(messages.NewPullAllMessage()); err != nil {
			return nil, err
		}
	}

	return batch.Bytes(), nil
}

// AckFailure acknowledges a pending server failure. The server must
// answer with exactly an IGNORED followed by a SUCCESS for the
// connection to become usable again; anything else leaves it failed.
func (c *boltConn) AckFailure() error {
	if c.state != connFailed {
		return errors.New("Cannot acknowledge a failure on a connection in %s state", stateNames[c.state])
	}

	log.Infof("Acknowledging server failure")
	if err := encoding.NewEncoder(c, c.chunkSize).Encode(messages.NewAckFailureMessage()); err != nil {
		c.kill()
		return errors.Classify(errors.PhaseAck, err)
	}

	decoder := encoding.NewDecoder(c)

	firstInt, err := decoder.Decode()
	if err != nil {
		c.kill()
		return errors.Classify(errors.PhaseAck, err)
	}
	if _, ok := firstInt.(messages.IgnoredMessage); !ok {
		return errors.NewAckFailureViolation(firstInt)
	}

	secondInt, err := decoder.Decode()
	if err != nil {
		c.kill()
		return errors.Classify(errors.PhaseAck, err)
	}
	if _, ok := secondInt.(messages.SuccessMessage); !ok {
		return errors.NewAckFailureViolation(secondInt)
	}

	c.state = connReady
	return nil
}

// Reset returns the connection to a clean state no matter what it was
// doing. Replies to whatever request the reset interrupted arrive as
// IGNORED and are skipped.
func (c *boltConn) Reset() error {
	if c.state == connDisconnected {
		return errors.New("Cannot reset a closed connection")
	}

	log.Infof("Resetting session")
	if err := encoding.NewEncoder(c, c.chunkSize).Encode(messages.NewResetMessage()); err != nil {
		c.kill()
		return errors.Classify(errors.PhaseReset, err)
	}

	decoder := encoding.NewDecoder(c)
	for {
		respInt, err := decoder.Decode()
		if err != nil {
			c.kill()
			return errors.Classify(errors.PhaseReset, err)
		}

		switch resp := respInt.(type) {
		case messages.IgnoredMessage:
			continue
		case messages.SuccessMessage:
			c.transaction = nil
			c.state = connReady
			return nil
		default:
			c.kill()
			return errors.NewProtocolError(errors.PhaseReset, "Unrecognized response resetting session: %#v", resp)
		}
	}
}

// Begin opens an explicit transaction on the connection
func (c *boltConn) Begin() (Tx, error) {
	if c.state != connReady {
		return nil, errors.New("Cannot begin a transaction on a connection in %s state", stateNames[c.state])
	}
	if c.transaction != nil {
		return nil, errors.New("A transaction is already open on this connection")
	}

	if _, err := c.Exec("BEGIN", nil); err != nil {
		return nil, errors.Wrap(err, "An error occurred beginning transaction")
	}

	c.transaction = newBoltTx(c)
	return c.transaction, nil
}

// Close closes the connection. Safe to call more than once.
func (c *boltConn) Close() error {
	if c.state == connDisconnected {
		return nil
	}

	c.transaction = nil
	err := c.conn.Close()
	c.state = connDisconnected
	if err != nil {
		return errors.Wrap(err, "An error occurred closing the connection")
	}

	log.Infof("Closed connection to %s", c.url.Host)
	return nil
}

// SetChunkSize sets the maximum payload carried per chunk on outgoing
// messages
func (c *boltConn) SetChunkSize(chunkSize uint16) {
	c.chunkSize = chunkSize
}

// SetTimeout sets the read/write deadline applied to every exchange
// with the server
func (c *boltConn) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// kill closes the transport after an unrecoverable failure. The
// connection cannot be used again afterwards.
func (c *boltConn) kill() {
	log.Infof("Closing connection after unrecoverable failure")
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			log.Errorf("An error occurred closing the connection: %s", err)
		}
	}
	c.transaction = nil
	c.state = connDisconnected
}
