package messages

const (
	// InitMessageSignature is the signature byte for the INIT message
	InitMessageSignature = 0x01
)

// InitMessage represents the INIT message. It carries the client
// identifier and the authentication token for the session.
type InitMessage struct {
	client    string
	authToken map[string]interface{}
}

// NewInitMessage gets a new InitMessage struct. The auth token is empty
// when no principal is given, otherwise it uses the basic scheme.
func NewInitMessage(client string, principal string, credentials string) InitMessage {
	authToken := map[string]interface{}{}
	if principal != "" {
		authToken = map[string]interface{}{
			"scheme":      "basic",
			"principal":   principal,
			"credentials": credentials,
		}
	}

	return InitMessage{
		client:    client,
		authToken: authToken,
	}
}

// Signature gets the signature byte for the message
func (i InitMessage) Signature() int {
	return InitMessageSignature
}

// AllFields gets the fields to encode for the message
func (i InitMessage) AllFields() []interface{} {
	return []interface{}{i.client, i.authToken}
}
