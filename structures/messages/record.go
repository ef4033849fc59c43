package messages

const (
	// RecordMessageSignature is the signature byte for the RECORD message
	RecordMessageSignature = 0x71
)

// RecordMessage represents the RECORD message. Fields holds the values of
// a single result row in the order the statement returned them.
type RecordMessage struct {
	Fields []interface{}
}

// NewRecordMessage gets a new RecordMessage struct
func NewRecordMessage(fields []interface{}) RecordMessage {
	return RecordMessage{
		Fields: fields,
	}
}

// Signature gets the signature byte for the message
func (r RecordMessage) Signature() int {
	return RecordMessageSignature
}

// AllFields gets the fields to encode for the message
func (r RecordMessage) AllFields() []interface{} {
	return []interface{}{r.Fields}
}
