package messages

const (
	// AckFailureMessageSignature is the signature byte for the ACK_FAILURE message
	AckFailureMessageSignature = 0x0E
)

// AckFailureMessage represents the ACK_FAILURE message. It acknowledges a
// server failure so the session can accept requests again.
type AckFailureMessage struct{}

// NewAckFailureMessage gets a new AckFailureMessage struct
func NewAckFailureMessage() AckFailureMessage {
	return AckFailureMessage{}
}

// Signature gets the signature byte for the message
func (a AckFailureMessage) Signature() int {
	return AckFailureMessageSignature
}

// AllFields gets the fields to encode for the message
func (a AckFailureMessage) AllFields() []interface{} {
	return []interface{}{}
}
