// Package modeldata fetches and parses provider model catalogs.
package modeldata

import (
	"slices"

	"samplegate/internal/selection"
)

// ReasoningParameter is the supported_parameters entry that marks a model
// as capable of extended thinking.
const ReasoningParameter = "reasoning"

// ModelList is the body of OpenRouter's GET /models.
type ModelList struct {
	Data []Model `json:"data"`
}

// Model is a single catalog entry as returned by OpenRouter.
type Model struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Created             int64         `json:"created"`
	Description         string        `json:"description"`
	ContextLength       int           `json:"context_length"`
	Pricing             *Pricing      `json:"pricing,omitempty"`
	Architecture        *Architecture `json:"architecture,omitempty"`
	TopProvider         *TopProvider  `json:"top_provider,omitempty"`
	SupportedParameters []string      `json:"supported_parameters,omitempty"`
}

// Pricing is OpenRouter's per-token price block; prices are decimal strings.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
	Image      string `json:"image,omitempty"`
	Request    string `json:"request,omitempty"`
}

// Architecture describes input/output modalities.
type Architecture struct {
	Modality     string `json:"modality"`
	Tokenizer    string `json:"tokenizer"`
	InstructType string `json:"instruct_type,omitempty"`
}

// TopProvider carries limits of the preferred upstream for a model.
type TopProvider struct {
	ContextLength       int  `json:"context_length"`
	MaxCompletionTokens int  `json:"max_completion_tokens"`
	IsModerated         bool `json:"is_moderated"`
}

// Descriptors converts the list into selector descriptors, preserving order.
// Entries without an id are dropped. A missing context_length falls back to
// the top provider's limit.
func (l *ModelList) Descriptors() []selection.ModelDescriptor {
	if l == nil {
		return nil
	}
	out := make([]selection.ModelDescriptor, 0, len(l.Data))
	for _, m := range l.Data {
		if m.ID == "" {
			continue
		}
		out = append(out, m.Descriptor())
	}
	return out
}

// Descriptor converts a single entry.
func (m Model) Descriptor() selection.ModelDescriptor {
	d := selection.ModelDescriptor{
		ID:            m.ID,
		Name:          m.Name,
		ContextLength: m.ContextLength,
	}
	if d.ContextLength == 0 && m.TopProvider != nil {
		d.ContextLength = m.TopProvider.ContextLength
	}
	if slices.Contains(m.SupportedParameters, ReasoningParameter) {
		d.Capabilities = append(d.Capabilities, selection.CapabilityExtendedThinking)
	}
	if m.Pricing != nil {
		d.Pricing = &selection.Pricing{
			Prompt:     m.Pricing.Prompt,
			Completion: m.Pricing.Completion,
			Image:      m.Pricing.Image,
			Request:    m.Pricing.Request,
		}
	}
	if m.Architecture != nil {
		d.Architecture = &selection.Architecture{
			Modality:     m.Architecture.Modality,
			Tokenizer:    m.Architecture.Tokenizer,
			InstructType: m.Architecture.InstructType,
		}
	}
	return d
}
