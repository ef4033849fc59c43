package encoding

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/graphkit/bolt/errors"
	"github.com/graphkit/bolt/structures/graph"
	"github.com/graphkit/bolt/structures/messages"
)

// Decoder decodes chunked messages from the bolt protocol stream.
// Decoding is strict: an unrecognized marker or structure signature is a
// protocol violation, not something to resynchronize from.
//
// Maps and Slices are a special case, where only map[string]interface{}
// and []interface{} are supported. Integers of every width decode to
// int64.
type Decoder struct {
	r io.Reader
}

// NewDecoder Creates a new Decoder object
func NewDecoder(r io.Reader) Decoder {
	return Decoder{r: r}
}

// protocolViolation raises a wire format violation. The session stamps
// the protocol phase on it once the error reaches a layer that knows it.
func protocolViolation(msg string, args ...interface{}) error {
	return errors.NewProtocolError("", msg, args...)
}

// readMessage reads chunks off the stream until the end of message
// marker, accumulating the payload into a single buffer. Errors out of
// here are transport errors.
func (d Decoder) readMessage() (*bytes.Buffer, error) {
	output := &bytes.Buffer{}
	header := make([]byte, 2)
	for {
		if _, err := io.ReadFull(d.r, header); err != nil {
			return nil, err
		}
		chunkLength := binary.BigEndian.Uint16(header)
		if chunkLength == 0 {
			return output, nil
		}
		if _, err := io.CopyN(output, d.r, int64(chunkLength)); err != nil {
			return nil, err
		}
	}
}

// Decode reads the next message off the stream and decodes it to an object
func (d Decoder) Decode() (interface{}, error) {
	message, err := d.readMessage()
	if err != nil {
		return nil, err
	}

	val, err := d.decode(message)
	if err != nil {
		return nil, err
	}

	if message.Len() > 0 {
		return nil, protocolViolation("Message left %d undecoded bytes", message.Len())
	}
	return val, nil
}

// read pulls a fixed width big endian value out of the message buffer
func (d Decoder) read(buffer *bytes.Buffer, out interface{}) error {
	if err := binary.Read(buffer, binary.BigEndian, out); err != nil {
		return protocolViolation("Message ended before its value was complete")
	}
	return nil
}

func (d Decoder) decode(buffer *bytes.Buffer) (interface{}, error) {
	marker, err := buffer.ReadByte()
	if err != nil {
		return nil, protocolViolation("Message ended before a marker could be read")
	}

	switch {

	// TINY_INT
	case marker <= 0x7F:
		return int64(marker), nil
	case marker >= 0xF0:
		return int64(int8(marker)), nil

	// NIL
	case marker == NilMarker:
		return nil, nil

	// BOOL
	case marker == TrueMarker:
		return true, nil
	case marker == FalseMarker:
		return false, nil

	// INT
	case marker == Int8Marker:
		var out int8
		if err := d.read(buffer, &out); err != nil {
			return nil, err
		}
		return int64(out), nil
	case marker == Int16Marker:
		var out int16
		if err := d.read(buffer, &out); err != nil {
			return nil, err
		}
		return int64(out), nil
	case marker == Int32Marker:
		var out int32
		if err := d.read(buffer, &out); err != nil {
			return nil, err
		}
		return int64(out), nil
	case marker == Int64Marker:
		var out int64
		if err := d.read(buffer, &out); err != nil {
			return nil, err
		}
		return out, nil

	// FLOAT
	case marker == FloatMarker:
		var out float64
		if err := d.read(buffer, &out); err != nil {
			return nil, err
		}
		return out, nil

	// STRING
	case marker >= TinyStringMarker && marker <= TinyStringMarker+0x0F:
		return d.decodeString(buffer, int(marker)-TinyStringMarker)
	case marker == String8Marker:
		var size uint8
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeString(buffer, int(size))
	case marker == String16Marker:
		var size uint16
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeString(buffer, int(size))
	case marker == String32Marker:
		var size uint32
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeString(buffer, int(size))

	// SLICE
	case marker >= TinySliceMarker && marker <= TinySliceMarker+0x0F:
		return d.decodeSlice(buffer, int(marker)-TinySliceMarker)
	case marker == Slice8Marker:
		var size uint8
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeSlice(buffer, int(size))
	case marker == Slice16Marker:
		var size uint16
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeSlice(buffer, int(size))
	case marker == Slice32Marker:
		var size uint32
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeSlice(buffer, int(size))

	// MAP
	case marker >= TinyMapMarker && marker <= TinyMapMarker+0x0F:
		return d.decodeMap(buffer, int(marker)-TinyMapMarker)
	case marker == Map8Marker:
		var size uint8
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeMap(buffer, int(size))
	case marker == Map16Marker:
		var size uint16
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeMap(buffer, int(size))
	case marker == Map32Marker:
		var size uint32
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeMap(buffer, int(size))

	// STRUCTURE
	case marker >= TinyStructMarker && marker <= TinyStructMarker+0x0F:
		return d.decodeStruct(buffer, int(marker)-TinyStructMarker)
	case marker == Struct8Marker:
		var size uint8
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeStruct(buffer, int(size))
	case marker == Struct16Marker:
		var size uint16
		if err := d.read(buffer, &size); err != nil {
			return nil, err
		}
		return d.decodeStruct(buffer, int(size))

	default:
		return nil, protocolViolation("Unrecognized marker byte: %x", marker)
	}
}

func (d Decoder) decodeString(buffer *bytes.Buffer, size int) (string, error) {
	if buffer.Len() < size {
		return "", protocolViolation("Message ended before its value was complete")
	}
	return string(buffer.Next(size)), nil
}

func (d Decoder) decodeSlice(buffer *bytes.Buffer, size int) ([]interface{}, error) {
	slice := make([]interface{}, size)
	for i := 0; i < size; i++ {
		item, err := d.decode(buffer)
		if err != nil {
			return nil, err
		}
		slice[i] = item
	}

	return slice, nil
}

func (d Decoder) decodeMap(buffer *bytes.Buffer, size int) (map[string]interface{}, error) {
	out := make(map[string]interface{}, size)
	for i := 0; i < size; i++ {
		keyVal, err := d.decode(buffer)
		if err != nil {
			return nil, err
		}
		val, err := d.decode(buffer)
		if err != nil {
			return nil, err
		}

		key, ok := keyVal.(string)
		if !ok {
			return nil, protocolViolation("Expected a string map key, got %T %+v", keyVal, keyVal)
		}
		out[key] = val
	}

	return out, nil
}

// decodeStruct reads the declared number of fields and dispatches on the
// signature byte. The field count decides what the payload of a message
// is: the value of a single field message is surfaced directly.
func (d Decoder) decodeStruct(buffer *bytes.Buffer, size int) (interface{}, error) {
	signature, err := buffer.ReadByte()
	if err != nil {
		return nil, protocolViolation("Structure ended before its signature could be read")
	}

	fields := make([]interface{}, size)
	for i := range fields {
		field, err := d.decode(buffer)
		if err != nil {
			return nil, err
		}
		fields[i] = field
	}

	switch int(signature) {
	case messages.SuccessMessageSignature:
		metadata, err := messageMetadata(fields, "SUCCESS")
		if err != nil {
			return nil, err
		}
		return messages.NewSuccessMessage(metadata), nil
	case messages.FailureMessageSignature:
		metadata, err := messageMetadata(fields, "FAILURE")
		if err != nil {
			return nil, err
		}
		return messages.NewFailureMessage(metadata), nil
	case messages.IgnoredMessageSignature:
		message := messages.NewIgnoredMessage()
		if len(fields) > 0 {
			metadata, err := messageMetadata(fields, "IGNORED")
			if err != nil {
				return nil, err
			}
			message.Metadata = metadata
		}
		return message, nil
	case messages.RecordMessageSignature:
		if len(fields) != 1 {
			return nil, protocolViolation("Expected 1 field for a RECORD message, got %d", len(fields))
		}
		values, ok := fields[0].([]interface{})
		if !ok {
			return nil, protocolViolation("Expected RECORD values to be a list, got %T %+v", fields[0], fields[0])
		}
		return messages.NewRecordMessage(values), nil
	case graph.NodeSignature:
		return hydrateNode(fields)
	case graph.RelationshipSignature:
		return hydrateRelationship(fields)
	case graph.UnboundRelationshipSignature:
		return hydrateUnboundRelationship(fields)
	case graph.PathSignature:
		return hydratePath(fields)
	default:
		return nil, protocolViolation("Unrecognized structure with signature %x", signature)
	}
}

// messageMetadata pulls the metadata map out of a single field message
func messageMetadata(fields []interface{}, kind string) (map[string]interface{}, error) {
	if len(fields) != 1 {
		return nil, protocolViolation("Expected 1 field for a %s message, got %d", kind, len(fields))
	}
	metadata, ok := fields[0].(map[string]interface{})
	if !ok {
		return nil, protocolViolation("Expected %s metadata to be a map, got %T %+v", kind, fields[0], fields[0])
	}
	return metadata, nil
}

// Unmarshal decodes an object from a single chunked message held in memory
func Unmarshal(b []byte) (interface{}, error) {
	return NewDecoder(bytes.NewBuffer(b)).Decode()
}
