package entities

// ModelRequest is one prompt submitted to the language-model backend.
// The dependency reconciliation engine never builds one of these; only
// the agent and refactor surfaces do.
type ModelRequest struct {
	SystemPrompt string
	UserPrompt   string
	// WantJSON asks the backend for a bare JSON object response.
	WantJSON bool
}
