// Package core defines the canonical in-memory representation of a plan
// graph. A GraphModel is immutable once constructed: editing always means
// building a new instance and committing it as a fresh version.
package core

import (
	"fmt"
	"sort"

	pkgerrors "plangraph/pkg/errors"
)

// NodeType classifies plan graph nodes
type NodeType string

const (
	NodeTypeObjective NodeType = "objective"
	NodeTypeProject   NodeType = "project"
	NodeTypeTask      NodeType = "task"
	NodeTypeActor     NodeType = "actor"
	NodeTypeObject    NodeType = "object"
	NodeTypeKnowledge NodeType = "knowledge"
	NodeTypeBudget    NodeType = "budget"
)

// Valid reports whether the node type is one of the known types
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeObjective, NodeTypeProject, NodeTypeTask,
		NodeTypeActor, NodeTypeObject, NodeTypeKnowledge, NodeTypeBudget:
		return true
	}
	return false
}

// IsResource reports whether the node type describes a required resource
func (t NodeType) IsResource() bool {
	switch t {
	case NodeTypeActor, NodeTypeObject, NodeTypeKnowledge, NodeTypeBudget:
		return true
	}
	return false
}

// Relationship classifies plan graph edges
type Relationship string

const (
	RelationshipContains Relationship = "CONTAINS"
	RelationshipRequires Relationship = "REQUIRES"
	RelationshipPrecedes Relationship = "PRECEDES"
)

// Valid reports whether the relationship is one of the known relationships
func (r Relationship) Valid() bool {
	switch r {
	case RelationshipContains, RelationshipRequires, RelationshipPrecedes:
		return true
	}
	return false
}

// Attributes is an open-ended mapping of attribute names to scalar values
type Attributes map[string]interface{}

// Clone returns an independent copy of the attribute map
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	clone := make(Attributes, len(a))
	for k, v := range a {
		clone[k] = v
	}
	return clone
}

// Node is a single element of a plan graph
type Node struct {
	ID         string
	Type       NodeType
	Label      string
	Attributes Attributes
}

// Edge is a directed, typed connection between two nodes. Self-loops are
// permitted but must be declared explicitly.
type Edge struct {
	ID           string
	Source       string
	Target       string
	Relationship Relationship
	Attributes   Attributes
}

// GraphModel is the canonical immutable graph representation. All fields are
// private; read access goes through copying queries so no caller can reach
// shared mutable state.
type GraphModel struct {
	graphID string
	nodes   map[string]Node
	edges   map[string]Edge
}

// NewGraphModel constructs a validated graph. It fails with a validation
// error if the graph id is empty, any node or edge id is empty or collides,
// a node type or relationship is unknown, or an edge references a node that
// is not part of the graph.
func NewGraphModel(graphID string, nodes []Node, edges []Edge) (*GraphModel, error) {
	if graphID == "" {
		return nil, pkgerrors.NewValidationError("graph id cannot be empty")
	}

	nodeSet := make(map[string]Node, len(nodes))
	for _, node := range nodes {
		if node.ID == "" {
			return nil, pkgerrors.NewValidationError("node id cannot be empty")
		}
		if !node.Type.Valid() {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("node %s has unknown type %q", node.ID, node.Type))
		}
		if _, exists := nodeSet[node.ID]; exists {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("duplicate node id %s", node.ID))
		}
		node.Attributes = node.Attributes.Clone()
		nodeSet[node.ID] = node
	}

	edgeSet := make(map[string]Edge, len(edges))
	for _, edge := range edges {
		if edge.ID == "" {
			return nil, pkgerrors.NewValidationError("edge id cannot be empty")
		}
		if !edge.Relationship.Valid() {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("edge %s has unknown relationship %q", edge.ID, edge.Relationship))
		}
		if _, exists := edgeSet[edge.ID]; exists {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("duplicate edge id %s", edge.ID))
		}
		if _, exists := nodeSet[edge.Source]; !exists {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("edge %s references missing source node %s", edge.ID, edge.Source))
		}
		if _, exists := nodeSet[edge.Target]; !exists {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("edge %s references missing target node %s", edge.ID, edge.Target))
		}
		edge.Attributes = edge.Attributes.Clone()
		edgeSet[edge.ID] = edge
	}

	return &GraphModel{
		graphID: graphID,
		nodes:   nodeSet,
		edges:   edgeSet,
	}, nil
}

// GraphID returns the stable identity of the graph across versions
func (g *GraphModel) GraphID() string {
	return g.graphID
}

// NodeCount returns the number of nodes
func (g *GraphModel) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *GraphModel) EdgeCount() int {
	return len(g.edges)
}

// Node retrieves a single node by id
func (g *GraphModel) Node(id string) (Node, bool) {
	node, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	node.Attributes = node.Attributes.Clone()
	return node, true
}

// Nodes returns all nodes sorted by id
func (g *GraphModel) Nodes() []Node {
	nodes := make([]Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		node.Attributes = node.Attributes.Clone()
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// NodesByType returns all nodes of the given type sorted by id
func (g *GraphModel) NodesByType(t NodeType) []Node {
	nodes := make([]Node, 0)
	for _, node := range g.nodes {
		if node.Type == t {
			node.Attributes = node.Attributes.Clone()
			nodes = append(nodes, node)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Edges returns all edges sorted by id
func (g *GraphModel) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		edge.Attributes = edge.Attributes.Clone()
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges
}

// EdgesByRelationship returns all edges with the given relationship sorted by id
func (g *GraphModel) EdgesByRelationship(r Relationship) []Edge {
	edges := make([]Edge, 0)
	for _, edge := range g.edges {
		if edge.Relationship == r {
			edge.Attributes = edge.Attributes.Clone()
			edges = append(edges, edge)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges
}

// Neighbors returns every node connected to the given node by an edge in
// either direction, sorted by id. It fails with a not found error when the
// node is not part of the graph.
func (g *GraphModel) Neighbors(nodeID string) ([]Node, error) {
	if _, exists := g.nodes[nodeID]; !exists {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("node %s", nodeID))
	}

	seen := make(map[string]bool)
	neighbors := make([]Node, 0)
	for _, edge := range g.edges {
		var other string
		switch {
		case edge.Source == nodeID:
			other = edge.Target
		case edge.Target == nodeID:
			other = edge.Source
		default:
			continue
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		node := g.nodes[other]
		node.Attributes = node.Attributes.Clone()
		neighbors = append(neighbors, node)
	}

	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].ID < neighbors[j].ID })
	return neighbors, nil
}

// Equal reports whether two graphs are structurally equal: same graph id and
// identical node and edge sets including attribute values.
func (g *GraphModel) Equal(other *GraphModel) bool {
	if other == nil || g.graphID != other.graphID {
		return false
	}
	if len(g.nodes) != len(other.nodes) || len(g.edges) != len(other.edges) {
		return false
	}
	for id, node := range g.nodes {
		otherNode, ok := other.nodes[id]
		if !ok || node.Type != otherNode.Type || node.Label != otherNode.Label {
			return false
		}
		if !attributesEqual(node.Attributes, otherNode.Attributes) {
			return false
		}
	}
	for id, edge := range g.edges {
		otherEdge, ok := other.edges[id]
		if !ok || edge.Source != otherEdge.Source || edge.Target != otherEdge.Target ||
			edge.Relationship != otherEdge.Relationship {
			return false
		}
		if !attributesEqual(edge.Attributes, otherEdge.Attributes) {
			return false
		}
	}
	return true
}

func attributesEqual(a, b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
