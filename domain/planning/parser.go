// Package planning converts the JSON plan produced by the language model
// into a canonical GraphModel. The hierarchy becomes CONTAINS edges, declared
// resource needs become REQUIRES edges, and declared orderings become
// PRECEDES edges. Parsing is a pure function of its input; malformed plans
// are rejected before anything is committed.
package planning

import (
	"encoding/json"
	"fmt"

	"plangraph/domain/core"
	pkgerrors "plangraph/pkg/errors"
	"plangraph/pkg/idgen"
)

// Plan is the expected shape of the language model's output: a hierarchy of
// one objective containing projects containing tasks.
type Plan struct {
	Objective string    `json:"objective"`
	Projects  []Project `json:"projects"`
}

// Project is a named group of tasks under the objective
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Tasks       []Task `json:"tasks"`
}

// projectAlias accepts the project name under either "name" or "project"
type projectAlias struct {
	Name        string `json:"name"`
	Project     string `json:"project"`
	Description string `json:"description"`
	Tasks       []Task `json:"tasks"`
}

// UnmarshalJSON accepts the project name under either key
func (p *Project) UnmarshalJSON(data []byte) error {
	var alias projectAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	p.Name = alias.Name
	if p.Name == "" {
		p.Name = alias.Project
	}
	p.Description = alias.Description
	p.Tasks = alias.Tasks
	return nil
}

// Task is a single unit of work. Plans may declare a task as a bare string
// (name only) or as a full object.
type Task struct {
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	EstimatedHours float64   `json:"estimated_hours,omitempty"`
	Dependencies   []string  `json:"dependencies,omitempty"` // tasks that precede this one
	Precedes       []string  `json:"precedes,omitempty"`     // tasks this one precedes
	Requires       []string  `json:"requires,omitempty"`     // untyped named resources
	Resources      Resources `json:"resources,omitempty"`
}

type taskAlias Task

// UnmarshalJSON accepts either a bare task name or a task object
func (t *Task) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*t = Task{Name: name}
		return nil
	}
	var alias taskAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*t = Task(alias)
	return nil
}

// Resources groups a task's typed resource needs
type Resources struct {
	Actors    []string `json:"actors,omitempty"`
	Objects   []string `json:"objects,omitempty"`
	Knowledge []string `json:"knowledge,omitempty"`
	Budget    float64  `json:"budget,omitempty"`
}

// Parse converts raw plan JSON into a GraphModel carrying the given graph id.
// Every structural element receives a freshly generated unique id. It fails
// with a malformed plan error when required fields are missing, a declared
// dependency or ordering names a task not present in the hierarchy, or the
// containment hierarchy is not a forest.
func Parse(graphID string, raw json.RawMessage) (*core.GraphModel, error) {
	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, pkgerrors.NewMalformedPlanError("plan is not valid JSON").WithCause(err)
	}
	return ParsePlan(graphID, plan)
}

// ParsePlan converts an already-decoded plan into a GraphModel
func ParsePlan(graphID string, plan Plan) (*core.GraphModel, error) {
	if plan.Objective == "" {
		return nil, pkgerrors.NewMalformedPlanError("plan is missing an objective")
	}

	b := &builder{taskIDs: make(map[string]string)}

	// First pass: depth-first walk of the declared hierarchy. One node per
	// element, one CONTAINS edge per parent-child pair.
	objectiveID, err := b.addNode(core.NodeTypeObjective, plan.Objective, nil)
	if err != nil {
		return nil, err
	}

	for _, project := range plan.Projects {
		if project.Name == "" {
			return nil, pkgerrors.NewMalformedPlanError("project is missing a name")
		}
		projectID, err := b.addNode(core.NodeTypeProject, project.Name, descriptionAttrs(project.Description, 0))
		if err != nil {
			return nil, err
		}
		if err := b.addEdge(objectiveID, projectID, core.RelationshipContains); err != nil {
			return nil, err
		}

		for _, task := range project.Tasks {
			if task.Name == "" {
				return nil, pkgerrors.NewMalformedPlanError(
					fmt.Sprintf("task in project %q is missing a name", project.Name))
			}
			taskID, err := b.addNode(core.NodeTypeTask, task.Name,
				descriptionAttrs(task.Description, task.EstimatedHours))
			if err != nil {
				return nil, err
			}
			if err := b.addEdge(projectID, taskID, core.RelationshipContains); err != nil {
				return nil, err
			}
			if _, dup := b.taskIDs[task.Name]; dup {
				return nil, pkgerrors.NewMalformedPlanError(
					fmt.Sprintf("duplicate task name %q makes dependencies ambiguous", task.Name))
			}
			b.taskIDs[task.Name] = taskID

			if err := b.addResources(taskID, task); err != nil {
				return nil, err
			}
		}
	}

	// Second pass: resolve named cross-references into PRECEDES edges.
	for _, project := range plan.Projects {
		for _, task := range project.Tasks {
			taskID := b.taskIDs[task.Name]
			for _, dep := range task.Dependencies {
				depID, ok := b.taskIDs[dep]
				if !ok {
					return nil, pkgerrors.NewMalformedPlanError(
						fmt.Sprintf("task %q depends on unknown task %q", task.Name, dep))
				}
				if err := b.addEdge(depID, taskID, core.RelationshipPrecedes); err != nil {
					return nil, err
				}
			}
			for _, next := range task.Precedes {
				nextID, ok := b.taskIDs[next]
				if !ok {
					return nil, pkgerrors.NewMalformedPlanError(
						fmt.Sprintf("task %q precedes unknown task %q", task.Name, next))
				}
				if err := b.addEdge(taskID, nextID, core.RelationshipPrecedes); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := checkContainsForest(b.nodes, b.edges); err != nil {
		return nil, err
	}

	model, err := core.NewGraphModel(graphID, b.nodes, b.edges)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "building graph from plan")
	}
	return model, nil
}

type builder struct {
	nodes   []core.Node
	edges   []core.Edge
	taskIDs map[string]string
}

func (b *builder) addNode(t core.NodeType, label string, attrs core.Attributes) (string, error) {
	id, err := idgen.NewNodeID()
	if err != nil {
		return "", pkgerrors.NewInternalError("generating node id").WithCause(err)
	}
	b.nodes = append(b.nodes, core.Node{ID: id, Type: t, Label: label, Attributes: attrs})
	return id, nil
}

func (b *builder) addEdge(source, target string, rel core.Relationship) error {
	id, err := idgen.NewEdgeID()
	if err != nil {
		return pkgerrors.NewInternalError("generating edge id").WithCause(err)
	}
	b.edges = append(b.edges, core.Edge{ID: id, Source: source, Target: target, Relationship: rel})
	return nil
}

// addResources creates one fresh resource node per declared need and a
// REQUIRES edge from the task to it. Untyped "requires" entries become
// object nodes; the typed groups keep their declared types.
func (b *builder) addResources(taskID string, task Task) error {
	add := func(t core.NodeType, label string, attrs core.Attributes) error {
		if label == "" {
			return nil
		}
		resourceID, err := b.addNode(t, label, attrs)
		if err != nil {
			return err
		}
		return b.addEdge(taskID, resourceID, core.RelationshipRequires)
	}

	for _, name := range task.Requires {
		if err := add(core.NodeTypeObject, name, nil); err != nil {
			return err
		}
	}
	for _, name := range task.Resources.Actors {
		if err := add(core.NodeTypeActor, name, nil); err != nil {
			return err
		}
	}
	for _, name := range task.Resources.Objects {
		if err := add(core.NodeTypeObject, name, nil); err != nil {
			return err
		}
	}
	for _, name := range task.Resources.Knowledge {
		if err := add(core.NodeTypeKnowledge, name, nil); err != nil {
			return err
		}
	}
	if task.Resources.Budget > 0 {
		label := fmt.Sprintf("Budget: %v", task.Resources.Budget)
		attrs := core.Attributes{"amount": task.Resources.Budget}
		if err := add(core.NodeTypeBudget, label, attrs); err != nil {
			return err
		}
	}
	return nil
}

func descriptionAttrs(description string, estimatedHours float64) core.Attributes {
	attrs := core.Attributes{}
	if description != "" {
		attrs["description"] = description
	}
	if estimatedHours > 0 {
		attrs["estimated_hours"] = estimatedHours
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// checkContainsForest verifies that CONTAINS edges form a forest: no node is
// contained by more than one parent and no containment cycle exists. The
// depth-first walk cannot produce either, but the invariant is checked
// explicitly rather than left to later detection.
func checkContainsForest(nodes []core.Node, edges []core.Edge) error {
	parent := make(map[string]string)
	children := make(map[string][]string)
	for _, edge := range edges {
		if edge.Relationship != core.RelationshipContains {
			continue
		}
		if _, exists := parent[edge.Target]; exists {
			return pkgerrors.NewMalformedPlanError(
				fmt.Sprintf("node %s is contained by more than one parent", edge.Target))
		}
		parent[edge.Target] = edge.Source
		children[edge.Source] = append(children[edge.Source], edge.Target)
	}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(nodes))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return pkgerrors.NewMalformedPlanError("containment hierarchy contains a cycle")
		case done:
			return nil
		}
		state[id] = visiting
		for _, child := range children[id] {
			if err := visit(child); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for _, node := range nodes {
		if err := visit(node.ID); err != nil {
			return err
		}
	}
	return nil
}
