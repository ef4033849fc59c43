package errors

import "fmt"

// Phase identifies the protocol phase an error was raised in
type Phase string

const (
	// PhaseHandshake covers version negotiation
	PhaseHandshake Phase = "handshake"
	// PhaseInit covers session initialization
	PhaseInit Phase = "init"
	// PhaseRun covers sending a statement and its leading response
	PhaseRun Phase = "run"
	// PhaseRecv covers draining records and summaries
	PhaseRecv Phase = "recv"
	// PhaseAck covers failure acknowledgement
	PhaseAck Phase = "ack"
	// PhaseReset covers session resets
	PhaseReset Phase = "reset"
)

// HandshakeError means version negotiation with the server failed.
// Received holds the raw version reply, when one arrived.
type HandshakeError struct {
	Received []byte
	inner    error
}

// NewHandshakeError makes a new HandshakeError
func NewHandshakeError(received []byte, inner error) *HandshakeError {
	return &HandshakeError{Received: received, inner: inner}
}

// Error gets the error output
func (e *HandshakeError) Error() string {
	msg := fmt.Sprintf("An error occurred negotiating a protocol version. Server response: %x", e.Received)
	if e.inner != nil {
		msg += fmt.Sprintf(": %s", e.inner)
	}
	return msg
}

// Unwrap returns the underlying transport error, if any
func (e *HandshakeError) Unwrap() error {
	return e.inner
}

// AuthenticationError means the server rejected the credentials presented
// during session initialization. Metadata carries the server failure
// metadata verbatim.
type AuthenticationError struct {
	Metadata map[string]interface{}
}

// NewAuthenticationError makes a new AuthenticationError
func NewAuthenticationError(metadata map[string]interface{}) *AuthenticationError {
	return &AuthenticationError{Metadata: metadata}
}

// Code gets the failure code reported by the server
func (e *AuthenticationError) Code() string {
	code, _ := e.Metadata["code"].(string)
	return code
}

// Message gets the failure message reported by the server
func (e *AuthenticationError) Message() string {
	message, _ := e.Metadata["message"].(string)
	return message
}

// Error gets the error output
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("Authentication was rejected by the server: %s (%s)", e.Message(), e.Code())
}

// ProtocolError means the peer violated the protocol contract and the
// exchange cannot be resynchronized
type ProtocolError struct {
	Phase Phase
	msg   string
}

// NewProtocolError makes a new ProtocolError
func NewProtocolError(phase Phase, msg string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Phase: phase, msg: fmt.Sprintf(msg, args...)}
}

// Error gets the error output
func (e *ProtocolError) Error() string {
	if e.Phase == "" {
		return e.msg
	}
	return fmt.Sprintf("%s (phase: %s)", e.msg, e.Phase)
}

// TransportError wraps a failure of the underlying connection with the
// phase it interrupted
type TransportError struct {
	Phase Phase
	inner error
}

// NewTransportError makes a new TransportError
func NewTransportError(phase Phase, inner error) *TransportError {
	return &TransportError{Phase: phase, inner: inner}
}

// Error gets the error output
func (e *TransportError) Error() string {
	return fmt.Sprintf("An error occurred on the underlying connection during %s: %s", e.Phase, e.inner)
}

// Timeout reports whether the transport failure was a deadline expiring
func (e *TransportError) Timeout() bool {
	t, ok := e.inner.(interface{ Timeout() bool })
	return ok && t.Timeout()
}

// Unwrap returns the underlying transport error
func (e *TransportError) Unwrap() error {
	return e.inner
}

// ServerFailure is a FAILURE message received while running a statement.
// Metadata carries the server failure metadata verbatim.
type ServerFailure struct {
	Metadata map[string]interface{}
}

// NewServerFailure makes a new ServerFailure
func NewServerFailure(metadata map[string]interface{}) *ServerFailure {
	return &ServerFailure{Metadata: metadata}
}

// Code gets the failure code reported by the server
func (e *ServerFailure) Code() string {
	code, _ := e.Metadata["code"].(string)
	return code
}

// Message gets the failure message reported by the server
func (e *ServerFailure) Message() string {
	message, _ := e.Metadata["message"].(string)
	return message
}

// Error gets the error output
func (e *ServerFailure) Error() string {
	return fmt.Sprintf("Server reported a failure: %s (%s)", e.Message(), e.Code())
}

// AckFailureViolation means the server did not answer an ACK_FAILURE with
// exactly an IGNORED followed by a SUCCESS
type AckFailureViolation struct {
	Got interface{}
}

// NewAckFailureViolation makes a new AckFailureViolation
func NewAckFailureViolation(got interface{}) *AckFailureViolation {
	return &AckFailureViolation{Got: got}
}

// Error gets the error output
func (e *AckFailureViolation) Error() string {
	return fmt.Sprintf("Expected IGNORED then SUCCESS acknowledging a failure, got: %#v", e.Got)
}

// Classify tags a wire-level error with the protocol phase it interrupted.
// Protocol violations raised during decoding keep their identity, errors
// already raised by this library pass through untouched and anything else
// came from the transport.
func Classify(phase Phase, err error) error {
	switch e := err.(type) {
	case *ProtocolError:
		if e.Phase == "" {
			e.Phase = phase
		}
		return e
	case *Error, *HandshakeError, *AuthenticationError, *TransportError, *ServerFailure, *AckFailureViolation:
		return err
	default:
		return NewTransportError(phase, err)
	}
}
