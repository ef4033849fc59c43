package bolt

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/graphkit/bolt/encoding"
	"github.com/graphkit/bolt/errors"
	"github.com/graphkit/bolt/log"
)

// recorder stands in for the transport of a connection. With
// RECORD_OUTPUT set it dials the real server, passes every byte
// through, and writes the whole session to recordings/<name>.json on
// close. Without it, the recorder replays that file instead, so the
// session can run without any server at all.
type recorder struct {
	net.Conn
	name         string
	connStr      string
	events       []*Event
	currentEvent int
}

// Event is a single consecutive run of reads or writes within a
// recorded session
type Event struct {
	Timestamp int64 `json:"-"`
	Event     []byte
	IsWrite   bool
	Completed bool
	Error     error
}

func newRecorder(name string, connStr string) (*recorder, error) {
	r := &recorder{
		name:    name,
		connStr: connStr,
	}

	if os.Getenv("RECORD_OUTPUT") != "" {
		parsed, err := url.Parse(connStr)
		if err != nil {
			return nil, errors.Wrap(err, "An error occurred parsing connection string for recording %s", name)
		}
		conn, err := net.Dial("tcp", parsed.Host)
		if err != nil {
			return nil, errors.Wrap(err, "An error occurred dialing server for recording %s", name)
		}
		r.Conn = conn
		return r, nil
	}

	if err := r.load(name); err != nil {
		return nil, errors.Wrap(err, "An error occurred loading recording %s", name)
	}
	return r, nil
}

// openRecorded opens a connection whose transport is a recorder instead
// of a plain socket
func openRecorded(name string, connStr string) (Conn, error) {
	c, err := newBoltConn(connStr)
	if err != nil {
		return nil, err
	}

	rec, err := newRecorder(name, connStr)
	if err != nil {
		return nil, err
	}
	c.conn = rec

	if err := c.establish(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *recorder) lastEvent() *Event {
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

// record appends data to the current event, starting a new event
// whenever the direction flips or the previous event already holds a
// complete message
func (r *recorder) record(data []byte, isWrite bool) {
	event := r.lastEvent()
	if event == nil || event.Completed || event.IsWrite != isWrite {
		event = &Event{Timestamp: time.Now().UnixNano(), IsWrite: isWrite}
		r.events = append(r.events, event)
	}

	event.Event = append(event.Event, data...)
	event.Completed = bytes.HasSuffix(event.Event, encoding.EndMessage)
}

func (r *recorder) Read(b []byte) (n int, err error) {
	if r.Conn != nil {
		numRead, err := r.Conn.Read(b)
		if numRead > 0 {
			r.record(b[:numRead], false)
		}
		return numRead, err
	}

	if r.currentEvent >= len(r.events) {
		return 0, errors.New("Tried to read past the end of recording %s", r.name)
	}
	event := r.events[r.currentEvent]
	if event.IsWrite {
		return 0, errors.New("Recording %s expects a write next, but got a read", r.name)
	}

	n = copy(b, event.Event)
	event.Event = event.Event[n:]
	if len(event.Event) == 0 {
		r.currentEvent++
	}
	return n, nil
}

func (r *recorder) Write(b []byte) (n int, err error) {
	if r.Conn != nil {
		numWritten, err := r.Conn.Write(b)
		if numWritten > 0 {
			r.record(b[:numWritten], true)
		}
		return numWritten, err
	}

	if r.currentEvent >= len(r.events) {
		return 0, errors.New("Tried to write past the end of recording %s", r.name)
	}
	event := r.events[r.currentEvent]
	if !event.IsWrite {
		return 0, errors.New("Recording %s expects a read next, but got a write", r.name)
	}

	if len(b) > len(event.Event) || !bytes.Equal(b, event.Event[:len(b)]) {
		return 0, errors.New("Write does not match recording %s.\nExpected:\n%s\nGot:\n%s", r.name, sprintByteHex(event.Event), sprintByteHex(b))
	}
	event.Event = event.Event[len(b):]
	if len(event.Event) == 0 {
		r.currentEvent++
	}
	return len(b), nil
}

func (r *recorder) Close() error {
	if r.Conn != nil {
		if err := r.flush(); err != nil {
			return err
		}
		return r.Conn.Close()
	}

	if r.currentEvent != len(r.events) {
		return errors.New("Recording %s still has %d events to play", r.name, len(r.events)-r.currentEvent)
	}
	return nil
}

func (r *recorder) SetReadDeadline(t time.Time) error {
	if r.Conn != nil {
		return r.Conn.SetReadDeadline(t)
	}
	return nil
}

func (r *recorder) SetWriteDeadline(t time.Time) error {
	if r.Conn != nil {
		return r.Conn.SetWriteDeadline(t)
	}
	return nil
}

func (r *recorder) load(name string) error {
	data, err := ioutil.ReadFile(filepath.Join("recordings", name+".json"))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &r.events)
}

func (r *recorder) flush() error {
	data, err := json.Marshal(r.events)
	if err != nil {
		return err
	}

	if err := os.MkdirAll("recordings", 0755); err != nil {
		return err
	}
	path := filepath.Join("recordings", r.name+".json")
	log.Infof("Writing recording to %s", path)
	return ioutil.WriteFile(path, data, 0644)
}
