package graph

const (
	// UnboundRelationshipSignature is the signature byte for an UnboundRelationship structure
	UnboundRelationshipSignature = 0x72
)

// UnboundRelationship represents a relationship without its start and end
// nodes, as it appears inside a Path
type UnboundRelationship struct {
	RelIdentity int64
	Type        string
	Properties  map[string]interface{}
}

// Signature gets the signature byte for the structure
func (u UnboundRelationship) Signature() int {
	return UnboundRelationshipSignature
}

// AllFields gets the fields to encode for the structure
func (u UnboundRelationship) AllFields() []interface{} {
	return []interface{}{u.RelIdentity, u.Type, u.Properties}
}
