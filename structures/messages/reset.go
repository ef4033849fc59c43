package messages

const (
	// ResetMessageSignature is the signature byte for the RESET message
	ResetMessageSignature = 0x0F
)

// ResetMessage represents the RESET message. It returns the session to a
// clean state regardless of any pending failure.
type ResetMessage struct{}

// NewResetMessage gets a new ResetMessage struct
func NewResetMessage() ResetMessage {
	return ResetMessage{}
}

// Signature gets the signature byte for the message
func (r ResetMessage) Signature() int {
	return ResetMessageSignature
}

// AllFields gets the fields to encode for the message
func (r ResetMessage) AllFields() []interface{} {
	return []interface{}{}
}
