package model

// ComposedResponse is the terminal artifact of one user turn: prose for the
// user plus structured detail for callers that want to render a result table
// alongside it. Not persisted.
type ComposedResponse struct {
	Status       ResultStatus       `json:"status"`
	Message      string             `json:"message"`
	ResultsCount int                `json:"results_count"`
	Request      *StructuredRequest `json:"structured_request,omitempty"`
	Result       *NormalizedResult  `json:"data_results,omitempty"`
}
