package messages

const (
	// DiscardAllMessageSignature is the signature byte for the DISCARD_ALL message
	DiscardAllMessageSignature = 0x2F
)

// DiscardAllMessage represents the DISCARD_ALL message. It asks the server
// to drop every record of the preceding statement.
type DiscardAllMessage struct{}

// NewDiscardAllMessage gets a new DiscardAllMessage struct
func NewDiscardAllMessage() DiscardAllMessage {
	return DiscardAllMessage{}
}

// Signature gets the signature byte for the message
func (d DiscardAllMessage) Signature() int {
	return DiscardAllMessageSignature
}

// AllFields gets the fields to encode for the message
func (d DiscardAllMessage) AllFields() []interface{} {
	return []interface{}{}
}
