package providers

import (
	"unicode/utf8"

	"samplegate/internal/core"
	"samplegate/internal/selection"
)

// Preferences converts request model preferences into resolver input.
// A nil value yields empty preferences.
func Preferences(p *core.ModelPreferences) selection.Preferences {
	if p == nil {
		return selection.Preferences{}
	}
	prefs := selection.Preferences{
		Model:                    p.Model,
		CostPriority:             p.CostPriority,
		SpeedPriority:            p.SpeedPriority,
		IntelligencePriority:     p.IntelligencePriority,
		ExtendedThinkingRequired: p.ExtendedThinkingRequired,
	}
	if len(p.Hints) > 0 {
		prefs.Hints = make([]selection.Hint, len(p.Hints))
		for i, h := range p.Hints {
			prefs.Hints[i] = selection.Hint{Name: h.Name}
		}
	}
	return prefs
}

// RequestParams sizes a request for the resolver's context check. The prompt
// is measured in characters.
func RequestParams(prompt string, maxTokens int) selection.RequestParams {
	return selection.RequestParams{
		PromptLength: utf8.RuneCountInString(prompt),
		MaxTokens:    maxTokens,
	}
}

// PromptParams sizes req by the body of its last non-empty message, the
// same body the strategies forward upstream.
func PromptParams(req *core.SamplingRequest) selection.RequestParams {
	var prompt string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if body := MessageBody(req.Messages[i]); body != "" {
			prompt = body
			break
		}
	}
	return RequestParams(prompt, req.MaxTokens)
}

// MessageBody returns the content forwarded upstream for a message: the text
// of text content, the data of image content.
func MessageBody(m core.SamplingMessage) string {
	if m.Content.Type == core.ContentTypeImage {
		return m.Content.Data
	}
	return m.Content.Text
}

// TemperatureOr returns *t, or def when t is nil.
func TemperatureOr(t *float64, def float64) float64 {
	if t == nil {
		return def
	}
	return *t
}

// MaxTokensOr returns n, or def when n is not positive.
func MaxTokensOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
