package messages

const (
	// RunMessageSignature is the signature byte for the RUN message
	RunMessageSignature = 0x10
)

// RunMessage represents the RUN message. It submits a statement together
// with its parameters for execution.
type RunMessage struct {
	statement  string
	parameters map[string]interface{}
}

// NewRunMessage gets a new RunMessage struct
func NewRunMessage(statement string, parameters map[string]interface{}) RunMessage {
	return RunMessage{
		statement:  statement,
		parameters: parameters,
	}
}

// Signature gets the signature byte for the message
func (r RunMessage) Signature() int {
	return RunMessageSignature
}

// AllFields gets the fields to encode for the message
func (r RunMessage) AllFields() []interface{} {
	return []interface{}{r.statement, r.parameters}
}
