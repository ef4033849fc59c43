package messages

const (
	// FailureMessageSignature is the signature byte for the FAILURE message
	FailureMessageSignature = 0x7F
)

// FailureMessage represents the FAILURE message. Metadata carries the
// failure code and message sent by the server.
type FailureMessage struct {
	Metadata map[string]interface{}
}

// NewFailureMessage gets a new FailureMessage struct
func NewFailureMessage(metadata map[string]interface{}) FailureMessage {
	return FailureMessage{
		Metadata: metadata,
	}
}

// Signature gets the signature byte for the message
func (f FailureMessage) Signature() int {
	return FailureMessageSignature
}

// AllFields gets the fields to encode for the message
func (f FailureMessage) AllFields() []interface{} {
	return []interface{}{f.Metadata}
}
