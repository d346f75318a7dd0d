package domain

// QueryRequest is a knowledge base question with retrieval bounds.
type QueryRequest struct {
	// Query is the user's question.
	Query string `json:"query"`

	// TopKDocuments caps how many document chunks are retrieved.
	TopKDocuments int `json:"top_k_documents"`

	// TopKFacts caps how many facts are retrieved.
	TopKFacts int `json:"top_k_facts"`
}

// Answer is the structured output parsed from the generation step.
type Answer struct {
	// Answer is the direct answer to the question.
	Answer string `json:"answer"`

	// Confidence is in [0, 1]: how grounded the answer is in the
	// supplied context.
	Confidence float64 `json:"confidence"`

	// Explanation is a brief rationale naming the primary sources.
	Explanation string `json:"explanation"`
}

// QueryResponse is the full result of a knowledge base query.
type QueryResponse struct {
	Answer      string  `json:"answer"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`

	// Sources lists the retrieved evidence the answer was grounded on.
	Sources []SourceItem `json:"sources"`

	// InsufficientContext is set when retrieval found nothing above the
	// similarity floor. The query still succeeded; there was simply no
	// grounding to answer from.
	InsufficientContext bool `json:"insufficient_context"`
}
