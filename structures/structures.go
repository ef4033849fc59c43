package structures

// Structure represents a PackStream structure that can be sent or received
// on a bolt connection
type Structure interface {
	Signature() int
	AllFields() []interface{}
}
