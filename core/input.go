package core

// BaseInput provides common fields for all tool inputs.
// Tools embed this struct so every call carries the model's stated intent,
// which the engine logs alongside the execution.
type BaseInput struct {
	// Explanation is the model's one-line description of why it is
	// invoking this tool. Required for the shell tool, optional elsewhere.
	Explanation string `json:"explanation,omitempty"`
}
