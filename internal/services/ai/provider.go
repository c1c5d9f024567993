package ai

import (
	"context"
)

// AIProvider is the interface for AI providers
type AIProvider interface {
	// Chat sends a coaching conversation and returns the assistant response.
	// The system prompt carries the coach persona plus the user's analytics
	// digest and stored context.
	Chat(ctx context.Context, systemPrompt string, messages []ChatMessage) (*ChatResponse, error)

	// SummarizeContext condenses a conversation history into a context
	// summary for the next session.
	SummarizeContext(ctx context.Context, conversationHistory []ChatMessage) (string, error)
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatResponse represents a response from the AI chat
type ChatResponse struct {
	Message     string `json:"message"`
	Summary     string `json:"summary,omitempty"`      // Optional summary of the conversation
	NeedsUpdate bool   `json:"needs_update,omitempty"` // Whether context needs updating
}

// ProviderFactory creates an AI provider based on the provider type
type ProviderFactory func(config map[string]string) (AIProvider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (AIProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// RegisterOpenAI registers the OpenAI provider factory
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string) (AIProvider, error) {
		return NewOpenAIProviderWithConfig(config["api_key"], config["base_url"], config["model"]), nil
	})
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
