package messages

const (
	// PullAllMessageSignature is the signature byte for the PULL_ALL message
	PullAllMessageSignature = 0x3F
)

// PullAllMessage represents the PULL_ALL message. It asks the server to
// stream every record of the preceding statement.
type PullAllMessage struct{}

// NewPullAllMessage gets a new PullAllMessage struct
func NewPullAllMessage() PullAllMessage {
	return PullAllMessage{}
}

// Signature gets the signature byte for the message
func (p PullAllMessage) Signature() int {
	return PullAllMessageSignature
}

// AllFields gets the fields to encode for the message
func (p PullAllMessage) AllFields() []interface{} {
	return []interface{}{}
}
