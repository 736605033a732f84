package model

import "fmt"

// BackgroundKind tags the active variant of a Background.
type BackgroundKind string

const (
	BackgroundTemplate  BackgroundKind = "template"
	BackgroundUploaded  BackgroundKind = "uploaded"
	BackgroundGenerated BackgroundKind = "generated"
)

// Background is a tagged union over the three ways an invitation background
// can be chosen. Only the payload of the active Kind is populated, so two
// descriptors built from the same selection compare equal with ==.
type Background struct {
	Kind       BackgroundKind `json:"kind"`
	TemplateID string         `json:"templateId,omitempty"`
	ImageData  string         `json:"imageData,omitempty"`
	Prompt     string         `json:"prompt,omitempty"`
	Result     string         `json:"result,omitempty"`
}

func TemplateBackground(id string) Background {
	return Background{Kind: BackgroundTemplate, TemplateID: id}
}

func UploadedBackground(imageData string) Background {
	return Background{Kind: BackgroundUploaded, ImageData: imageData}
}

func GeneratedBackground(prompt, result string) Background {
	return Background{Kind: BackgroundGenerated, Prompt: prompt, Result: result}
}

// IsZero reports whether no background has been chosen.
func (b Background) IsZero() bool {
	return b == Background{}
}

// Validate checks that exactly the active variant's payload is set.
func (b Background) Validate() error {
	switch b.Kind {
	case BackgroundTemplate:
		if b.TemplateID == "" || b.ImageData != "" || b.Prompt != "" || b.Result != "" {
			return fmt.Errorf("template background: %w", ErrInvalidBackground)
		}
	case BackgroundUploaded:
		if b.ImageData == "" || b.TemplateID != "" || b.Prompt != "" || b.Result != "" {
			return fmt.Errorf("uploaded background: %w", ErrInvalidBackground)
		}
	case BackgroundGenerated:
		if b.Result == "" || b.TemplateID != "" || b.ImageData != "" {
			return fmt.Errorf("generated background: %w", ErrInvalidBackground)
		}
	default:
		return fmt.Errorf("background kind %q: %w", b.Kind, ErrInvalidBackground)
	}
	return nil
}
