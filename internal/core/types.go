package core

// Content types carried by sampling messages.
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Stop reasons.
const (
	StopReasonEndTurn = "endTurn"
	StopReasonStop    = "stop"
)

// DefaultImageMimeType is applied to image content without a mime type.
const DefaultImageMimeType = "image/jpeg"

// Content is a single piece of message content.
// Text is set for text content, Data and MimeType for images.
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// SamplingMessage is one conversational turn of a sampling request.
type SamplingMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// ModelHint is an advisory model-name fragment.
type ModelHint struct {
	Name string `json:"name,omitempty"`
}

// ModelPreferences expresses which model the caller would like.
// A zero priority means the dimension is not considered.
type ModelPreferences struct {
	Model                    string      `json:"model,omitempty"`
	Hints                    []ModelHint `json:"hints,omitempty"`
	CostPriority             float64     `json:"costPriority,omitempty"`
	SpeedPriority            float64     `json:"speedPriority,omitempty"`
	IntelligencePriority     float64     `json:"intelligencePriority,omitempty"`
	ExtendedThinkingRequired bool        `json:"extendedThinkingRequired,omitempty"`
}

// SamplingRequest is the params object of sampling/createMessage.
type SamplingRequest struct {
	Messages         []SamplingMessage `json:"messages"`
	SystemPrompt     string            `json:"systemPrompt,omitempty"`
	IncludeContext   string            `json:"includeContext,omitempty"`
	Temperature      *float64          `json:"temperature,omitempty"`
	MaxTokens        int               `json:"maxTokens"`
	StopSequences    []string          `json:"stopSequences,omitempty"`
	ModelPreferences *ModelPreferences `json:"modelPreferences,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
}

// Usage represents token usage information reported by a provider.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// SamplingResult is the completion returned by a strategy.
type SamplingResult struct {
	Model      string  `json:"model"`
	StopReason string  `json:"stopReason"`
	Role       string  `json:"role"`
	Content    Content `json:"content"`
	Usage      *Usage  `json:"-"`
}
