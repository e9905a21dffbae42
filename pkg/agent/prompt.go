package agent

// Message is one chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is the fixed system instruction paired with the caller's query.
type Prompt struct {
	System string
	User   string
}

// NewPrompt builds the prompt for one request. The query is used verbatim.
func NewPrompt(system, query string) Prompt {
	return Prompt{System: system, User: query}
}

// Messages returns the system message followed by the user message.
func (p Prompt) Messages() []Message {
	return []Message{
		{Role: "system", Content: p.System},
		{Role: "user", Content: p.User},
	}
}
