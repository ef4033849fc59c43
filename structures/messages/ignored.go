package messages

const (
	// IgnoredMessageSignature is the signature byte for the IGNORED message
	IgnoredMessageSignature = 0x7E
)

// IgnoredMessage represents the IGNORED message. Some servers attach
// metadata to it, which is kept but carries no meaning for the session.
type IgnoredMessage struct {
	Metadata map[string]interface{}
}

// NewIgnoredMessage gets a new IgnoredMessage struct
func NewIgnoredMessage() IgnoredMessage {
	return IgnoredMessage{}
}

// Signature gets the signature byte for the message
func (i IgnoredMessage) Signature() int {
	return IgnoredMessageSignature
}

// AllFields gets the fields to encode for the message
func (i IgnoredMessage) AllFields() []interface{} {
	return []interface{}{}
}
