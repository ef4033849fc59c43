package graph

const (
	// PathSignature is the signature byte for a Path structure
	PathSignature = 0x50
)

// Path represents a walk through the graph as a list of nodes, the
// relationships between them and the sequence tying the two together
type Path struct {
	Nodes         []Node
	Relationships []UnboundRelationship
	Sequence      []int
}

// Signature gets the signature byte for the structure
func (p Path) Signature() int {
	return PathSignature
}

// AllFields gets the fields to encode for the structure
func (p Path) AllFields() []interface{} {
	nodes := make([]interface{}, len(p.Nodes))
	for i, node := range p.Nodes {
		nodes[i] = node
	}
	relationships := make([]interface{}, len(p.Relationships))
	for i, relationship := range p.Relationships {
		relationships[i] = relationship
	}
	sequence := make([]interface{}, len(p.Sequence))
	for i, seq := range p.Sequence {
		sequence[i] = seq
	}
	return []interface{}{nodes, relationships, sequence}
}
