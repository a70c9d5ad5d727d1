// Package editor converts between the canonical GraphModel and the element
// wire format exchanged with the visual graph editor. Node and edge records
// share one flat shape and are distinguished by the presence of source and
// target fields. Conversion is lossless in both directions.
package editor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"plangraph/domain/core"
	pkgerrors "plangraph/pkg/errors"
)

// reserved element fields that are not free-form attributes
var reservedFields = map[string]bool{
	"id":           true,
	"label":        true,
	"type":         true,
	"source":       true,
	"target":       true,
	"relationship": true,
}

// Element is a single wire-format record. A node element carries id, label,
// type and attributes; an edge element carries id, source, target,
// relationship and attributes. Attributes marshal inline with the fixed
// fields.
type Element struct {
	ID           string
	Label        string
	Type         core.NodeType
	Source       string
	Target       string
	Relationship core.Relationship
	Attributes   core.Attributes
}

// IsEdge reports whether the element is an edge record
func (e Element) IsEdge() bool {
	return e.Source != "" || e.Target != ""
}

// MarshalJSON flattens the element into a single JSON object with the
// attributes inlined next to the fixed fields
func (e Element) MarshalJSON() ([]byte, error) {
	record := make(map[string]interface{}, len(e.Attributes)+6)
	for k, v := range e.Attributes {
		if !reservedFields[k] {
			record[k] = v
		}
	}
	record["id"] = e.ID
	if e.IsEdge() {
		record["source"] = e.Source
		record["target"] = e.Target
		record["relationship"] = e.Relationship
	} else {
		record["label"] = e.Label
		record["type"] = e.Type
	}
	return json.Marshal(record)
}

// UnmarshalJSON reverses MarshalJSON. Numeric attribute values decode to
// int64 when integral and float64 otherwise, so numbers and booleans are
// never stringified.
func (e *Element) UnmarshalJSON(data []byte) error {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}

	stringField := func(key string) (string, error) {
		raw, ok := record[key]
		if !ok {
			return "", nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("element field %q must be a string", key)
		}
		return s, nil
	}

	var err error
	if e.ID, err = stringField("id"); err != nil {
		return err
	}
	if e.Label, err = stringField("label"); err != nil {
		return err
	}
	if e.Source, err = stringField("source"); err != nil {
		return err
	}
	if e.Target, err = stringField("target"); err != nil {
		return err
	}
	var t, rel string
	if t, err = stringField("type"); err != nil {
		return err
	}
	if rel, err = stringField("relationship"); err != nil {
		return err
	}
	e.Type = core.NodeType(t)
	e.Relationship = core.Relationship(rel)

	e.Attributes = nil
	for key, raw := range record {
		if reservedFields[key] {
			continue
		}
		value, err := decodeScalar(raw)
		if err != nil {
			return fmt.Errorf("element attribute %q: %w", key, err)
		}
		if e.Attributes == nil {
			e.Attributes = core.Attributes{}
		}
		e.Attributes[key] = value
	}
	return nil
}

func decodeScalar(raw json.RawMessage) (interface{}, error) {
	var value interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if num, ok := value.(json.Number); ok {
		if i, err := num.Int64(); err == nil {
			return i, nil
		}
		return num.Float64()
	}
	return value, nil
}

// ToElements renders a graph as wire elements: one record per node followed
// by one record per edge, each group sorted by id so the output is stable
// for a given graph and diffs stay deterministic.
func ToElements(g *core.GraphModel) []Element {
	nodes := g.Nodes()
	edges := g.Edges()
	elements := make([]Element, 0, len(nodes)+len(edges))
	for _, node := range nodes {
		elements = append(elements, Element{
			ID:         node.ID,
			Label:      node.Label,
			Type:       node.Type,
			Attributes: node.Attributes,
		})
	}
	for _, edge := range edges {
		elements = append(elements, Element{
			ID:           edge.ID,
			Source:       edge.Source,
			Target:       edge.Target,
			Relationship: edge.Relationship,
			Attributes:   edge.Attributes,
		})
	}
	return elements
}

// FromElements is the inverse of ToElements. It fails with a validation
// error when an edge element references a node element that is not present,
// when two elements share an id but disagree on kind, or when an element is
// otherwise invalid. Edits never mutate an existing graph; the result is a
// fresh GraphModel for the given graph id.
func FromElements(graphID string, elements []Element) (*core.GraphModel, error) {
	kinds := make(map[string]bool, len(elements)) // id -> isEdge
	var nodes []core.Node
	var edges []core.Edge

	for _, element := range elements {
		if element.ID == "" {
			return nil, pkgerrors.NewValidationError("element is missing an id")
		}
		isEdge := element.IsEdge()
		if seen, exists := kinds[element.ID]; exists && seen != isEdge {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("id %s is used by both a node and an edge element", element.ID))
		}
		kinds[element.ID] = isEdge

		if isEdge {
			if element.Source == "" || element.Target == "" {
				return nil, pkgerrors.NewValidationError(
					fmt.Sprintf("edge element %s is missing source or target", element.ID))
			}
			edges = append(edges, core.Edge{
				ID:           element.ID,
				Source:       element.Source,
				Target:       element.Target,
				Relationship: element.Relationship,
				Attributes:   element.Attributes,
			})
		} else {
			nodes = append(nodes, core.Node{
				ID:         element.ID,
				Type:       element.Type,
				Label:      element.Label,
				Attributes: element.Attributes,
			})
		}
	}

	return core.NewGraphModel(graphID, nodes, edges)
}
