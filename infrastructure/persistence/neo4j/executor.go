// Package neo4j applies generated mutation statements to a Neo4j database.
// Every element is a PlanElement node keyed by its version-scoped id, so all
// versions of a graph coexist and re-applying a statement batch is a no-op.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"plangraph/domain/core"
	"plangraph/domain/statements"
	pkgerrors "plangraph/pkg/errors"
)

// StatementExecutor executes mutation statements against Neo4j
type StatementExecutor struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewStatementExecutor connects a statement executor to Neo4j
func NewStatementExecutor(uri, username, password string, logger *zap.Logger) (*StatementExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("connect", err)
	}
	return &StatementExecutor{driver: driver, logger: logger}, nil
}

// Execute applies the statements in order inside a single write transaction
func (e *StatementExecutor) Execute(ctx context.Context, stmts []statements.Statement) error {
	if len(stmts) == 0 {
		return nil
	}

	session := e.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		for _, stmt := range stmts {
			cypher, params, err := toCypher(stmt)
			if err != nil {
				return nil, err
			}
			if _, err := tx.Run(ctx, cypher, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return pkgerrors.NewTimeoutError("execute statements").WithCause(err)
		}
		return pkgerrors.NewPersistenceError("execute statements", err)
	}

	e.logger.Debug("Applied statements", zap.Int("count", len(stmts)))
	return nil
}

// DeleteGraph removes every persisted version of a graph
func (e *StatementExecutor) DeleteGraph(ctx context.Context, graphID string) error {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx,
			"MATCH (n:PlanElement {graph_id: $graph_id}) DETACH DELETE n",
			map[string]interface{}{"graph_id": graphID},
		)
	})
	if err != nil {
		return pkgerrors.NewPersistenceError("delete graph", err)
	}
	return nil
}

// Ping verifies connectivity
func (e *StatementExecutor) Ping(ctx context.Context) error {
	return e.driver.VerifyConnectivity(ctx)
}

// Close releases the driver
func (e *StatementExecutor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// toCypher translates one statement into a parameterized Cypher query. Node
// labels and relationship types cannot be parameterized in Cypher; they are
// interpolated only after validation against the closed enums.
func toCypher(stmt statements.Statement) (string, map[string]interface{}, error) {
	props := map[string]interface{}{"scoped_id": stmt.VersionScopedID}
	for key, value := range stmt.Payload {
		if key == "attributes" {
			if attrs, ok := value.(map[string]interface{}); ok {
				for attrKey, attrValue := range attrs {
					if _, reserved := stmt.Payload[attrKey]; !reserved && attrKey != "scoped_id" {
						props[attrKey] = attrValue
					}
				}
			}
			continue
		}
		props[key] = value
	}

	params := map[string]interface{}{
		"scoped_id": stmt.VersionScopedID,
		"props":     props,
	}

	switch stmt.Operation {
	case statements.OperationUpsertNode:
		nodeType, _ := stmt.Payload["type"].(string)
		if !core.NodeType(nodeType).Valid() {
			return "", nil, pkgerrors.NewValidationError(
				fmt.Sprintf("cannot persist node with unknown type %q", nodeType))
		}
		cypher := fmt.Sprintf(
			"MERGE (n:PlanElement {scoped_id: $scoped_id}) SET n += $props SET n:%s",
			strings.ToUpper(nodeType),
		)
		return cypher, params, nil

	case statements.OperationUpsertEdge:
		relationship, _ := stmt.Payload["relationship"].(string)
		if !core.Relationship(relationship).Valid() {
			return "", nil, pkgerrors.NewValidationError(
				fmt.Sprintf("cannot persist edge with unknown relationship %q", relationship))
		}
		delete(props, "source")
		delete(props, "target")
		params["source"] = stmt.Payload["source"]
		params["target"] = stmt.Payload["target"]
		cypher := fmt.Sprintf(
			"MATCH (a:PlanElement {scoped_id: $source}), (b:PlanElement {scoped_id: $target}) "+
				"MERGE (a)-[r:%s {scoped_id: $scoped_id}]->(b) SET r += $props",
			relationship,
		)
		return cypher, params, nil
	}

	return "", nil, pkgerrors.NewValidationError(
		fmt.Sprintf("unknown statement operation %q", stmt.Operation))
}
