package model

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser    Role = "user"
	RoleAnalyst Role = "analyst"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GateDecision is the outcome of the guard check.
type GateDecision string

const (
	GateAllowed  GateDecision = "allowed"
	GateRejected GateDecision = "rejected"
)

// RouteDecision is the advisory routing hint.
type RouteDecision string

const (
	RouteScout   RouteDecision = "scout"
	RouteScholar RouteDecision = "scholar"
	RouteBoth    RouteDecision = "both"
)

// Branch identifies a parallel collection branch.
type Branch string

const (
	BranchScout        Branch = "scout"
	BranchScholar      Branch = "scholar"
	BranchCartographer Branch = "cartographer"
)

// State is the shared state flowing through a workflow run. The engine
// is the only writer; nodes receive a snapshot and return typed results.
type State struct {
	Conversation []Turn

	Gate  GateDecision
	Route RouteDecision

	// Retrieval holds the serialized output of each collection branch.
	Retrieval map[Branch]string

	// Locations holds raw location name candidates. Values may be strings
	// or single-key objects; the store coerces them before persisting.
	Locations []any

	FinalTopic   string
	FinalContent string

	Entities map[EntityCategory][]string

	// BriefingID is set by the persist node once the briefing is stored.
	BriefingID string
}

// NewState builds an initial state around a conversation history.
func NewState(conversation []Turn) *State {
	return &State{
		Conversation: conversation,
		Retrieval:    make(map[Branch]string),
		Entities:     make(map[EntityCategory][]string),
	}
}

// LatestUserTurn returns the most recent user message, or empty string.
func (s *State) LatestUserTurn() string {
	for i := len(s.Conversation) - 1; i >= 0; i-- {
		if s.Conversation[i].Role == RoleUser {
			return s.Conversation[i].Content
		}
	}
	return ""
}

// Append adds a turn to the conversation.
func (s *State) Append(role Role, content string) {
	s.Conversation = append(s.Conversation, Turn{Role: role, Content: content})
}
