package types

import "strings"

type ProductDetails struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Vertical    string   `json:"vertical" yaml:"vertical"`
	Voice       string   `json:"voice" yaml:"voice"`
	USPs        []string `json:"usps" yaml:"usps"`
	CTA         string   `json:"cta" yaml:"cta"`
}

type AudienceDetails struct {
	Demographics string   `json:"demographics" yaml:"demographics"`
	PainPoints   []string `json:"pain_points" yaml:"pain_points"`
	Motivations  []string `json:"motivations" yaml:"motivations"`
}

// Analysis is the product/audience record produced by landing page analysis.
type Analysis struct {
	SourceURL string          `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	Product   ProductDetails  `json:"product" yaml:"product"`
	Audience  AudienceDetails `json:"audience" yaml:"audience"`
}

// Clone returns a deep copy; slices are never shared with the receiver.
func (a *Analysis) Clone() *Analysis {
	if a == nil {
		return nil
	}
	out := *a
	out.Product.USPs = cloneStrings(a.Product.USPs)
	out.Audience.PainPoints = cloneStrings(a.Audience.PainPoints)
	out.Audience.Motivations = cloneStrings(a.Audience.Motivations)
	return &out
}

// ProjectName derives the project name for a confirmed analysis.
func (a *Analysis) ProjectName() string {
	if a == nil {
		return ""
	}
	name := strings.TrimSpace(a.Product.Name)
	if name == "" {
		return ""
	}
	return name + " Campaign"
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string{}, values...)
}
