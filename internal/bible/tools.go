package bible

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/christianai/chat-backend/internal/llm"
)

// Tool names exposed to the model.
const (
	ToolGetVerse    = "get_bible_verse"
	ToolSearch      = "search_bible"
	ToolRandomVerse = "get_random_verse"
)

// ToolError is the structured failure payload returned into the model's
// tool-calling loop. Lookups never raise past this boundary; the model is
// expected to acknowledge the failure verbally instead of aborting the turn.
type ToolError struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Tools returns the function definitions attached to a streaming generation.
func Tools() []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        ToolGetVerse,
				Description: "Fetch a Bible verse or passage by reference. Use when citing scripture or when the user asks for a specific verse.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"reference": {
							"type": "string",
							"description": "Bible reference like \"John 3:16\" or \"Romans 8:28-39\" or \"Psalm 23\""
						}
					},
					"required": ["reference"]
				}`),
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        ToolSearch,
				Description: "Search the Bible for verses containing specific words or phrases. Use when looking for verses about a topic.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"query": {
							"type": "string",
							"description": "Search terms like \"love neighbor\" or \"faith hope\" or \"forgiveness\""
						}
					},
					"required": ["query"]
				}`),
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        ToolRandomVerse,
				Description: "Get a random Bible verse for inspiration, encouragement, or when starting a conversation.",
				Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
			},
		},
	}
}

// Execute dispatches a tool call by name, honoring the caller's translation
// preference when one is given. The returned value is always a
// JSON-serializable payload; failures come back as ToolError, never as a Go
// error, so the generation loop keeps running.
func (c *Client) Execute(ctx context.Context, name, arguments, translation string) any {
	c = c.WithTranslation(translation)
	switch name {
	case ToolGetVerse:
		var args struct {
			Reference string `json:"reference"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil || args.Reference == "" {
			return ToolError{Error: true, Message: "missing verse reference"}
		}
		v, err := c.VerseByReference(ctx, args.Reference)
		if err != nil {
			return ToolError{Error: true, Message: fmt.Sprintf("Failed to fetch verse: %s", args.Reference)}
		}
		return v

	case ToolSearch:
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil || args.Query == "" {
			return ToolError{Error: true, Message: "missing search query"}
		}
		res, err := c.Search(ctx, args.Query)
		if err != nil {
			return ToolError{Error: true, Message: fmt.Sprintf("Search failed for: %s", args.Query)}
		}
		return res

	case ToolRandomVerse:
		v, err := c.RandomVerse(ctx)
		if err != nil {
			return ToolError{Error: true, Message: "Could not get random verse"}
		}
		return v

	default:
		return ToolError{Error: true, Message: fmt.Sprintf("unknown tool: %s", name)}
	}
}
