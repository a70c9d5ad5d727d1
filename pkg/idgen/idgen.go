// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
// Graph elements get fresh ids at parse time; nanoid keeps them compact enough
// to stay readable in wire elements and Cypher parameters.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet defines the character set used for the random portion of the ID.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
const Length = 12

// NodePrefix is prepended to generated node ids.
const NodePrefix = "n-"

// EdgePrefix is prepended to generated edge ids.
const EdgePrefix = "e-"

// NewNodeID returns a fresh node id.
func NewNodeID() (string, error) {
	return generateWithPrefix(NodePrefix)
}

// NewEdgeID returns a fresh edge id.
func NewEdgeID() (string, error) {
	return generateWithPrefix(EdgePrefix)
}

func generateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
