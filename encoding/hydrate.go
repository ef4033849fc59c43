package encoding

import (
	"github.com/graphkit/bolt/structures/graph"
)

// The graph structures arrive as plain field lists. The hydrators below
// turn them into their typed counterparts, validating field counts and
// types along the way.

func hydrateNode(fields []interface{}) (graph.Node, error) {
	if len(fields) != 3 {
		return graph.Node{}, protocolViolation("Expected 3 fields for a Node structure, got %d", len(fields))
	}

	identity, ok := fields[0].(int64)
	if !ok {
		return graph.Node{}, protocolViolation("Expected Node identity to be an int, got %T %+v", fields[0], fields[0])
	}

	labelList, ok := fields[1].([]interface{})
	if !ok {
		return graph.Node{}, protocolViolation("Expected Node labels to be a list, got %T %+v", fields[1], fields[1])
	}
	labels, err := toStringSlice(labelList)
	if err != nil {
		return graph.Node{}, err
	}

	properties, ok := fields[2].(map[string]interface{})
	if !ok {
		return graph.Node{}, protocolViolation("Expected Node properties to be a map, got %T %+v", fields[2], fields[2])
	}

	return graph.Node{
		NodeIdentity: identity,
		Labels:       labels,
		Properties:   properties,
	}, nil
}

func hydrateRelationship(fields []interface{}) (graph.Relationship, error) {
	if len(fields) != 5 {
		return graph.Relationship{}, protocolViolation("Expected 5 fields for a Relationship structure, got %d", len(fields))
	}

	identity, ok := fields[0].(int64)
	if !ok {
		return graph.Relationship{}, protocolViolation("Expected Relationship identity to be an int, got %T %+v", fields[0], fields[0])
	}

	startIdentity, ok := fields[1].(int64)
	if !ok {
		return graph.Relationship{}, protocolViolation("Expected Relationship start node identity to be an int, got %T %+v", fields[1], fields[1])
	}

	endIdentity, ok := fields[2].(int64)
	if !ok {
		return graph.Relationship{}, protocolViolation("Expected Relationship end node identity to be an int, got %T %+v", fields[2], fields[2])
	}

	relType, ok := fields[3].(string)
	if !ok {
		return graph.Relationship{}, protocolViolation("Expected Relationship type to be a string, got %T %+v", fields[3], fields[3])
	}

	properties, ok := fields[4].(map[string]interface{})
	if !ok {
		return graph.Relationship{}, protocolViolation("Expected Relationship properties to be a map, got %T %+v", fields[4], fields[4])
	}

	return graph.Relationship{
		RelIdentity:       identity,
		StartNodeIdentity: startIdentity,
		EndNodeIdentity:   endIdentity,
		Type:              relType,
		Properties:        properties,
	}, nil
}

func hydrateUnboundRelationship(fields []interface{}) (graph.UnboundRelationship, error) {
	if len(fields) != 3 {
		return graph.UnboundRelationship{}, protocolViolation("Expected 3 fields for an UnboundRelationship structure, got %d", len(fields))
	}

	identity, ok := fields[0].(int64)
	if !ok {
		return graph.UnboundRelationship{}, protocolViolation("Expected UnboundRelationship identity to be an int, got %T %+v", fields[0], fields[0])
	}

	relType, ok := fields[1].(string)
	if !ok {
		return graph.UnboundRelationship{}, protocolViolation("Expected UnboundRelationship type to be a string, got %T %+v", fields[1], fields[1])
	}

	properties, ok := fields[2].(map[string]interface{})
	if !ok {
		return graph.UnboundRelationship{}, protocolViolation("Expected UnboundRelationship properties to be a map, got %T %+v", fields[2], fields[2])
	}

	return graph.UnboundRelationship{
		RelIdentity: identity,
		Type:        relType,
		Properties:  properties,
	}, nil
}

func hydratePath(fields []interface{}) (graph.Path, error) {
	if len(fields) != 3 {
		return graph.Path{}, protocolViolation("Expected 3 fields for a Path structure, got %d", len(fields))
	}

	nodeList, ok := fields[0].([]interface{})
	if !ok {
		return graph.Path{}, protocolViolation("Expected Path nodes to be a list, got %T %+v", fields[0], fields[0])
	}
	nodes, err := toNodeSlice(nodeList)
	if err != nil {
		return graph.Path{}, err
	}

	relList, ok := fields[1].([]interface{})
	if !ok {
		return graph.Path{}, protocolViolation("Expected Path relationships to be a list, got %T %+v", fields[1], fields[1])
	}
	relationships, err := toUnboundRelationshipSlice(relList)
	if err != nil {
		return graph.Path{}, err
	}

	seqList, ok := fields[2].([]interface{})
	if !ok {
		return graph.Path{}, protocolViolation("Expected Path sequence to be a list, got %T %+v", fields[2], fields[2])
	}
	sequence, err := toIntSlice(seqList)
	if err != nil {
		return graph.Path{}, err
	}

	return graph.Path{
		Nodes:         nodes,
		Relationships: relationships,
		Sequence:      sequence,
	}, nil
}

func toStringSlice(from []interface{}) ([]string, error) {
	to := make([]string, len(from))
	for i, item := range from {
		str, ok := item.(string)
		if !ok {
			return nil, protocolViolation("Expected a string, got %T %+v", item, item)
		}
		to[i] = str
	}
	return to, nil
}

func toIntSlice(from []interface{}) ([]int, error) {
	to := make([]int, len(from))
	for i, item := range from {
		val, ok := item.(int64)
		if !ok {
			return nil, protocolViolation("Expected an int, got %T %+v", item, item)
		}
		to[i] = int(val)
	}
	return to, nil
}

func toNodeSlice(from []interface{}) ([]graph.Node, error) {
	to := make([]graph.Node, len(from))
	for i, item := range from {
		node, ok := item.(graph.Node)
		if !ok {
			return nil, protocolViolation("Expected a Node, got %T %+v", item, item)
		}
		to[i] = node
	}
	return to, nil
}

func toUnboundRelationshipSlice(from []interface{}) ([]graph.UnboundRelationship, error) {
	to := make([]graph.UnboundRelationship, len(from))
	for i, item := range from {
		rel, ok := item.(graph.UnboundRelationship)
		if !ok {
			return nil, protocolViolation("Expected an UnboundRelationship, got %T %+v", item, item)
		}
		to[i] = rel
	}
	return to, nil
}
