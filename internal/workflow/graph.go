// Package workflow runs the fixed briefing graph: a guard gate, an advisory
// router, three parallel collection branches, synthesis, entity extraction,
// and persistence.
package workflow

import "github.com/sells-group/osint-cli/internal/model"

// nodeID identifies a node in the static graph.
type nodeID string

const (
	nodeGate            nodeID = "gate"
	nodeRoute           nodeID = "route"
	nodeScout           nodeID = "scout"
	nodeScholar         nodeID = "scholar"
	nodeCartographer    nodeID = "cartographer"
	nodeSynthesize      nodeID = "synthesize"
	nodeExtractEntities nodeID = "extract_entities"
	nodePersist         nodeID = "persist"
)

// fieldMask marks which state fields a node owns. Exactly one node writes
// each field; the engine is the only code that applies writes.
type fieldMask uint16

const (
	fieldGate fieldMask = 1 << iota
	fieldRoute
	fieldScoutData
	fieldScholarData
	fieldLocations
	fieldTopic
	fieldContent
	fieldEntities
	fieldBriefingID
)

// nodeSpec declares a node's position in the graph and its field ownership.
type nodeSpec struct {
	id     nodeID
	after  []nodeID
	writes fieldMask
}

// graph is the full node table. The three collection branches share the
// same predecessor and are joined before synthesis.
var graph = []nodeSpec{
	{id: nodeGate, writes: fieldGate},
	{id: nodeRoute, after: []nodeID{nodeGate}, writes: fieldRoute},
	{id: nodeScout, after: []nodeID{nodeRoute}, writes: fieldScoutData},
	{id: nodeScholar, after: []nodeID{nodeRoute}, writes: fieldScholarData},
	{id: nodeCartographer, after: []nodeID{nodeRoute}, writes: fieldLocations},
	{id: nodeSynthesize, after: []nodeID{nodeScout, nodeScholar, nodeCartographer}, writes: fieldTopic | fieldContent},
	{id: nodeExtractEntities, after: []nodeID{nodeSynthesize}, writes: fieldEntities},
	{id: nodePersist, after: []nodeID{nodeExtractEntities}, writes: fieldBriefingID},
}

// branchBit maps each collection branch to its completion bit.
var branchBit = map[model.Branch]fieldMask{
	model.BranchScout:        fieldScoutData,
	model.BranchScholar:      fieldScholarData,
	model.BranchCartographer: fieldLocations,
}

// allBranches is the completion mask required before synthesis may run.
const allBranches = fieldScoutData | fieldScholarData | fieldLocations

// branchResult is the typed output of one collection branch. The engine
// applies it to state; branches never touch state themselves.
type branchResult struct {
	branch    model.Branch
	retrieval string
	locations []any
}

// mustValidateGraph panics when the node table is inconsistent: a field
// with multiple writers, or an edge referencing an unknown or later node.
// The graph is fixed at compile time, so a violation is a programming error.
func mustValidateGraph() {
	var written fieldMask
	seen := make(map[nodeID]bool, len(graph))
	for _, spec := range graph {
		if seen[spec.id] {
			panic("workflow: duplicate node " + spec.id)
		}
		if spec.writes&written != 0 {
			panic("workflow: field written by multiple nodes at " + spec.id)
		}
		written |= spec.writes
		for _, dep := range spec.after {
			if !seen[dep] {
				panic("workflow: node " + spec.id + " depends on undeclared node " + dep)
			}
		}
		seen[spec.id] = true
	}
}
