package workflow

import (
	"fmt"
	"strings"

	"mindcue/internal/types"
)

// Field names an editable analysis field.
type Field string

const (
	FieldProductName        Field = "product.name"
	FieldProductDescription Field = "product.description"
	FieldProductVertical    Field = "product.vertical"
	FieldProductVoice       Field = "product.voice"
	FieldProductUSPs        Field = "product.usps"
	FieldProductCTA         Field = "product.cta"
	FieldAudienceDemography Field = "audience.demographics"
	FieldAudiencePainPoints Field = "audience.pain_points"
	FieldAudienceMotivation Field = "audience.motivations"
)

var editableFields = []Field{
	FieldProductName,
	FieldProductDescription,
	FieldProductVertical,
	FieldProductVoice,
	FieldProductUSPs,
	FieldProductCTA,
	FieldAudienceDemography,
	FieldAudiencePainPoints,
	FieldAudienceMotivation,
}

// Fields lists the editable fields in display order.
func Fields() []Field {
	return append([]Field(nil), editableFields...)
}

func (f Field) Label() string {
	switch f {
	case FieldProductName:
		return "Name"
	case FieldProductDescription:
		return "Description"
	case FieldProductVertical:
		return "Vertical"
	case FieldProductVoice:
		return "Primary Voice"
	case FieldProductUSPs:
		return "Unique Selling Points"
	case FieldProductCTA:
		return "Call to Action"
	case FieldAudienceDemography:
		return "Primary Demographics"
	case FieldAudiencePainPoints:
		return "Pain Points"
	case FieldAudienceMotivation:
		return "Motivations"
	default:
		return string(f)
	}
}

// IsList reports whether the field holds a comma separated list.
func (f Field) IsList() bool {
	switch f {
	case FieldProductUSPs, FieldAudiencePainPoints, FieldAudienceMotivation:
		return true
	default:
		return false
	}
}

// SetField writes value into the analysis. Text fields are stored verbatim so
// the draft mirrors what is being typed; list fields are split on commas.
func SetField(analysis *types.Analysis, field Field, value string) error {
	if analysis == nil {
		return ErrNoDraft
	}
	switch field {
	case FieldProductName:
		analysis.Product.Name = value
	case FieldProductDescription:
		analysis.Product.Description = value
	case FieldProductVertical:
		analysis.Product.Vertical = value
	case FieldProductVoice:
		analysis.Product.Voice = value
	case FieldProductUSPs:
		analysis.Product.USPs = SplitList(value)
	case FieldProductCTA:
		analysis.Product.CTA = value
	case FieldAudienceDemography:
		analysis.Audience.Demographics = value
	case FieldAudiencePainPoints:
		analysis.Audience.PainPoints = SplitList(value)
	case FieldAudienceMotivation:
		analysis.Audience.Motivations = SplitList(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// FieldValue reads a field back in its editable text form.
func FieldValue(analysis *types.Analysis, field Field) string {
	if analysis == nil {
		return ""
	}
	switch field {
	case FieldProductName:
		return analysis.Product.Name
	case FieldProductDescription:
		return analysis.Product.Description
	case FieldProductVertical:
		return analysis.Product.Vertical
	case FieldProductVoice:
		return analysis.Product.Voice
	case FieldProductUSPs:
		return JoinList(analysis.Product.USPs)
	case FieldProductCTA:
		return analysis.Product.CTA
	case FieldAudienceDemography:
		return analysis.Audience.Demographics
	case FieldAudiencePainPoints:
		return JoinList(analysis.Audience.PainPoints)
	case FieldAudienceMotivation:
		return JoinList(analysis.Audience.Motivations)
	default:
		return ""
	}
}

// SplitList parses a comma separated value into trimmed, de-duplicated items.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := map[string]struct{}{}
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}

func JoinList(values []string) string {
	return strings.Join(values, ", ")
}

// NormalizeAnalysis trims text fields and de-duplicates list fields in place.
func NormalizeAnalysis(analysis *types.Analysis) {
	if analysis == nil {
		return
	}
	analysis.SourceURL = strings.TrimSpace(analysis.SourceURL)
	analysis.Product.Name = strings.TrimSpace(analysis.Product.Name)
	analysis.Product.Description = strings.TrimSpace(analysis.Product.Description)
	analysis.Product.Vertical = strings.TrimSpace(analysis.Product.Vertical)
	analysis.Product.Voice = strings.TrimSpace(analysis.Product.Voice)
	analysis.Product.CTA = strings.TrimSpace(analysis.Product.CTA)
	analysis.Product.USPs = SplitList(JoinList(analysis.Product.USPs))
	analysis.Audience.Demographics = strings.TrimSpace(analysis.Audience.Demographics)
	analysis.Audience.PainPoints = SplitList(JoinList(analysis.Audience.PainPoints))
	analysis.Audience.Motivations = SplitList(JoinList(analysis.Audience.Motivations))
}

// ValidateAnalysis checks the fields a project cannot be materialized without.
func ValidateAnalysis(analysis *types.Analysis) error {
	if analysis == nil {
		return ErrNoDraft
	}
	if strings.TrimSpace(analysis.Product.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidDraft)
	}
	return nil
}
