package messages

const (
	// SuccessMessageSignature is the signature byte for the SUCCESS message
	SuccessMessageSignature = 0x70
)

// SuccessMessage represents the SUCCESS message. Metadata carries the
// summary map sent by the server.
type SuccessMessage struct {
	Metadata map[string]interface{}
}

// NewSuccessMessage gets a new SuccessMessage struct
func NewSuccessMessage(metadata map[string]interface{}) SuccessMessage {
	return SuccessMessage{
		Metadata: metadata,
	}
}

// Signature gets the signature byte for the message
func (s SuccessMessage) Signature() int {
	return SuccessMessageSignature
}

// AllFields gets the fields to encode for the message
func (s SuccessMessage) AllFields() []interface{} {
	return []interface{}{s.Metadata}
}
