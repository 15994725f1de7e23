package model

// AppState stores per-turn state for the workflow graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as it is never touched outside handlers.
type AppState struct {
	ConversationID string
	UserQuery      string
	Request        *StructuredRequest // set by the classify node when a data request was built
	Result         *NormalizedResult  // set by the route node

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// QueryInput represents the input for processing one user turn.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}

// Classification is the classify node's outcome: either a direct
// conversational answer or a structured data request, never both.
type Classification struct {
	DirectAnswer string
	Request      *StructuredRequest
}

// IsDirect reports whether this turn short-circuits the router and composer.
func (c Classification) IsDirect() bool {
	return c.Request == nil
}
