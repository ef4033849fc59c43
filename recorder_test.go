package bolt

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/graphkit/bolt/encoding"
	"github.com/graphkit/bolt/structures"
	"github.com/graphkit/bolt/structures/messages"
)

// recordedSessionEvents builds the event stream of a credential-less
// session running a single statement, byte for byte what the recorder
// would have captured against a live server
func recordedSessionEvents(t *testing.T, statement string) []*Event {
	t.Helper()

	encode := func(msgs ...structures.Structure) []byte {
		var buf bytes.Buffer
		encoder := encoding.NewEncoder(&buf, 0)
		for _, msg := range msgs {
			if err := encoder.Encode(msg); err != nil {
				t.Fatalf("An error occurred encoding a session message: %s", err)
			}
		}
		return buf.Bytes()
	}

	handshake := append(append([]byte{}, magicPreamble...), supportedVersions...)

	return []*Event{
		{Event: handshake, IsWrite: true, Completed: true},
		{Event: []byte{0x00, 0x00, 0x00, 0x01}, IsWrite: false, Completed: true},
		{Event: encode(messages.NewInitMessage(ClientID, "", "")), IsWrite: true, Completed: true},
		{Event: encode(messages.NewSuccessMessage(map[string]interface{}{"server": "Neo4j/3.1.0"})), IsWrite: false, Completed: true},
		{Event: encode(messages.NewRunMessage(statement, nil), messages.NewPullAllMessage()), IsWrite: true, Completed: true},
		{Event: encode(
			messages.NewSuccessMessage(map[string]interface{}{"fields": []interface{}{"num"}}),
			messages.NewRecordMessage([]interface{}{int64(1)}),
			messages.NewSuccessMessage(map[string]interface{}{"type": "r"}),
		), IsWrite: false, Completed: true},
	}
}

func TestRecorder_ReplaySession(t *testing.T) {
	statement := "RETURN 1 AS num"
	rec := &recorder{name: "replay", events: recordedSessionEvents(t, statement)}

	c, err := newBoltConn("bolt://localhost:7687")
	if err != nil {
		t.Fatalf("An error occurred parsing the connection string: %s", err)
	}
	c.conn = rec

	if err := c.establish(); err != nil {
		t.Fatalf("An error occurred establishing the replayed session: %s", err)
	}

	result, err := c.Run(statement, nil)
	if err != nil {
		t.Fatalf("An error occurred running statement against the replay: %s", err)
	}
	if len(result.Records) != 1 || result.Records[0][0] != int64(1) {
		t.Errorf("Unexpected records from replay: %#v", result.Records)
	}

	// A clean close proves every recorded event was consumed
	if err := c.Close(); err != nil {
		t.Fatalf("An error occurred closing the replayed session: %s", err)
	}
}

func TestRecorder_OpenRecordedFromFile(t *testing.T) {
	if os.Getenv("RECORD_OUTPUT") != "" {
		t.Skip("Cannot replay from file while RECORD_OUTPUT is set")
	}

	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("An error occurred getting the working directory: %s", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("An error occurred entering the temp directory: %s", err)
	}
	defer os.Chdir(orig)

	statement := "RETURN 1 AS num"
	rec := &recorder{name: "session", events: recordedSessionEvents(t, statement)}
	if err := rec.flush(); err != nil {
		t.Fatalf("An error occurred writing the recording: %s", err)
	}

	conn, err := openRecorded("session", "bolt://localhost:7687")
	if err != nil {
		t.Fatalf("An error occurred opening the recorded session: %s", err)
	}

	result, err := conn.Run(statement, nil)
	if err != nil {
		t.Fatalf("An error occurred running statement against the recording: %s", err)
	}
	if len(result.Records) != 1 || result.Records[0][0] != int64(1) {
		t.Errorf("Unexpected records from recording: %#v", result.Records)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("An error occurred closing the recorded session: %s", err)
	}
}

func TestRecorder_RecordsTraffic(t *testing.T) {
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("An error occurred getting the working directory: %s", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("An error occurred entering the temp directory: %s", err)
	}
	defer os.Chdir(orig)

	client, server := net.Pipe()
	rec := &recorder{name: "traffic", Conn: client}

	// A minimal complete message: one chunk holding a nil value, then
	// the end of message marker
	message := []byte{0x00, 0x01, 0xC0, 0x00, 0x00}

	// Closing the peer unblocks the script on a failure, and waiting on
	// done keeps it from outliving the test
	done := make(chan struct{})
	defer func() { <-done }()
	defer server.Close()
	go func() {
		defer close(done)
		buf := make([]byte, len(message))
		for i := 0; i < 2; i++ {
			if _, err := io.ReadFull(server, buf); err != nil {
				t.Errorf("An error occurred reading on the peer side: %s", err)
				return
			}
		}
		if _, err := server.Write(message); err != nil {
			t.Errorf("An error occurred writing on the peer side: %s", err)
		}
	}()

	for i := 0; i < 2; i++ {
		if _, err := rec.Write(message); err != nil {
			t.Fatalf("An error occurred writing through the recorder: %s", err)
		}
	}
	reply := make([]byte, len(message))
	if _, err := io.ReadFull(rec, reply); err != nil {
		t.Fatalf("An error occurred reading through the recorder: %s", err)
	}
	<-done

	if len(rec.events) != 3 {
		t.Fatalf("Expected 3 recorded events, got %d", len(rec.events))
	}
	for i, isWrite := range []bool{true, true, false} {
		event := rec.events[i]
		if event.IsWrite != isWrite {
			t.Errorf("Unexpected direction on event %d", i)
		}
		if !event.Completed {
			t.Errorf("Expected event %d to be marked complete", i)
		}
		if !bytes.Equal(event.Event, message) {
			t.Errorf("Unexpected bytes on event %d: %x", i, event.Event)
		}
	}

	// Closing in record mode writes the session out
	if err := rec.Close(); err != nil {
		t.Fatalf("An error occurred closing the recorder: %s", err)
	}
	if _, err := os.Stat(filepath.Join("recordings", "traffic.json")); err != nil {
		t.Errorf("Expected the recording on disk: %s", err)
	}
}

func TestRecorder_FlushAndLoad(t *testing.T) {
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("An error occurred getting the working directory: %s", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("An error occurred entering the temp directory: %s", err)
	}
	defer os.Chdir(orig)

	events := recordedSessionEvents(t, "RETURN 1 AS num")
	rec := &recorder{name: "roundtrip", events: events}
	if err := rec.flush(); err != nil {
		t.Fatalf("An error occurred writing the recording: %s", err)
	}

	loaded := &recorder{name: "roundtrip"}
	if err := loaded.load("roundtrip"); err != nil {
		t.Fatalf("An error occurred loading the recording: %s", err)
	}

	if len(loaded.events) != len(events) {
		t.Fatalf("Expected %d events, got %d", len(events), len(loaded.events))
	}
	for i, event := range events {
		if !bytes.Equal(loaded.events[i].Event, event.Event) {
			t.Errorf("Event %d bytes changed across the round trip", i)
		}
		if loaded.events[i].IsWrite != event.IsWrite {
			t.Errorf("Event %d direction changed across the round trip", i)
		}
		if loaded.events[i].Completed != event.Completed {
			t.Errorf("Event %d completion changed across the round trip", i)
		}
	}
}

func TestRecorder_ReplayViolations(t *testing.T) {
	rec := &recorder{name: "mismatch", events: []*Event{{Event: []byte{0x01, 0x02}, IsWrite: true, Completed: true}}}
	if _, err := rec.Write([]byte{0xFF}); err == nil {
		t.Error("Expected an error writing bytes that do not match the recording")
	}

	rec = &recorder{name: "direction", events: []*Event{{Event: []byte{0x01}, IsWrite: false, Completed: true}}}
	if _, err := rec.Write([]byte{0x01}); err == nil {
		t.Error("Expected an error writing when the recording expects a read")
	}

	rec = &recorder{name: "direction", events: []*Event{{Event: []byte{0x01}, IsWrite: true, Completed: true}}}
	if _, err := rec.Read(make([]byte, 1)); err == nil {
		t.Error("Expected an error reading when the recording expects a write")
	}

	rec = &recorder{name: "empty"}
	if _, err := rec.Read(make([]byte, 1)); err == nil {
		t.Error("Expected an error reading past the end of the recording")
	}
	if _, err := rec.Write([]byte{0x01}); err == nil {
		t.Error("Expected an error writing past the end of the recording")
	}

	rec = &recorder{name: "pending", events: []*Event{{Event: []byte{0x01}, IsWrite: true, Completed: true}}}
	if err := rec.Close(); err == nil {
		t.Error("Expected an error closing a replay with events still pending")
	}
}
