package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindcue/internal/types"
)

const (
	WelcomeGreeting = "Hi! I'm your MindCue agent. I'll help you create winning video strategies and scripts.\n\n" +
		"To get started, just share your product's landing page URL and I'll analyze everything for you.\n\n" +
		"What's your product page?"
	StartOverGreeting = "No problem! Let's start fresh. Share your product's landing page URL and I'll analyze it for you.\n\n" +
		"What's your product page?"
	ClarificationReply = "I'd love to help! Could you share your product's landing page URL? This helps me analyze your " +
		"product details and target audience to create the best video strategies for you.\n\n" +
		"Just paste the URL here and I'll get started!"
	AnalysisInProgressReply = "I'm already working on a landing page. Start over if you'd like me to analyze a different one."
)

// StatusLines returns the cosmetic progress list shown while a phase waits.
func StatusLines(phase Phase) []string {
	switch phase {
	case PhaseProcessing:
		return []string{
			"Analyzing your landing page...",
			"Extracting product details...",
			"Identifying your target audience...",
			"Almost done...",
		}
	case PhaseStrategyProcessing:
		return []string{
			"Creating your video strategy...",
			"Analyzing market trends...",
			"Developing winning concepts...",
			"Calculating expected performance...",
		}
	case PhaseScriptProcessing:
		return []string{
			"Writing your video scripts...",
			"Creating scene descriptions...",
			"Optimizing for your audience...",
			"Adding production notes...",
		}
	default:
		return nil
	}
}

// SampleAnalysis is the draft produced by the simulated page analysis.
func SampleAnalysis(sourceURL string) *types.Analysis {
	return &types.Analysis{
		SourceURL: strings.TrimSpace(sourceURL),
		Product: types.ProductDetails{
			Name:        "CloudSync Pro",
			Description: "Advanced cloud storage solution for teams",
			Vertical:    "SaaS/Productivity",
			Voice:       "Professional, trustworthy",
			USPs:        []string{"End-to-end encryption", "Real-time collaboration", "99.9% uptime"},
			CTA:         "Start free trial",
		},
		Audience: types.AudienceDetails{
			Demographics: "25-45, business professionals, tech-savvy",
			PainPoints:   []string{"Data security concerns", "Team collaboration challenges", "File version conflicts"},
			Motivations:  []string{"Efficiency", "Security", "Seamless teamwork"},
		},
	}
}

type StrategyConcept struct {
	Name string
	Hook string
	CTR  string
	CVR  string
	Fit  string
}

type StrategySummary struct {
	HealthScore  string
	WeeklyVideos int
	AdSpend      string
	Concepts     []StrategyConcept
}

// Strategy returns the concept set shown in strategy-results.
func Strategy() StrategySummary {
	return StrategySummary{
		HealthScore:  "85/100",
		WeeklyVideos: 12,
		AdSpend:      "$25K",
		Concepts: []StrategyConcept{
			{Name: "Problem-Solution Hook", Hook: "Start with customer pain point, reveal solution", CTR: "8.3%", CVR: "4.1%", Fit: "9/10"},
			{Name: "Social Proof Opener", Hook: "Lead with testimonials and success stories", CTR: "7.8%", CVR: "3.9%", Fit: "8/10"},
			{Name: "Feature Demo Focus", Hook: "Showcase key features with real use cases", CTR: "7.2%", CVR: "3.7%", Fit: "8/10"},
		},
	}
}

// ScriptWriter produces scripts for a confirmed analysis.
type ScriptWriter interface {
	WriteScripts(ctx context.Context, analysis types.Analysis) ([]types.Script, error)
}

type ScriptWriterFunc func(ctx context.Context, analysis types.Analysis) ([]types.Script, error)

func (f ScriptWriterFunc) WriteScripts(ctx context.Context, analysis types.Analysis) ([]types.Script, error) {
	return f(ctx, analysis)
}

// CannedScriptWriter fills placeholder scripts with the analysis' product name
// and call to action.
type CannedScriptWriter struct {
	Now   func() time.Time
	NewID func() string
	Owner string
}

func (w CannedScriptWriter) WriteScripts(_ context.Context, analysis types.Analysis) ([]types.Script, error) {
	now := time.Now().UTC()
	if w.Now != nil {
		now = w.Now()
	}
	newID := uuid.NewString
	if w.NewID != nil {
		newID = w.NewID
	}
	product := strings.TrimSpace(analysis.Product.Name)
	if product == "" {
		product = "our product"
	}
	cta := strings.TrimSpace(analysis.Product.CTA)
	if cta == "" {
		cta = "Get started"
	}
	pain := "losing important work"
	if len(analysis.Audience.PainPoints) > 0 {
		pain = strings.ToLower(analysis.Audience.PainPoints[0])
	}
	audience := strings.TrimSpace(analysis.Audience.Demographics)
	if audience == "" {
		audience = "your audience"
	}
	scripts := []types.Script{
		{
			ConceptName: "Problem-Solution Hook",
			Target:      audience + " dealing with " + pain,
			Duration:    "15 seconds",
			CTR:         "8.3%",
			CVR:         "4.1%",
			Scenes: []types.ScriptScene{
				{Timeframe: "Hook - 0-3 seconds", Scene: "Close-up of a frustrated person at their desk", Text: "Tired of " + pain + "?"},
				{Timeframe: "Value Prop - 4-10 seconds", Scene: "Smooth transition to the " + product + " interface", Text: product + " takes care of it, so your team can focus on the work."},
				{Timeframe: "CTA - 11-15 seconds", Scene: "Happy team collaborating", Text: cta + " today!"},
			},
			Notes: []string{
				"Use contrasting lighting (dark/frustrated vs bright/solution)",
				"Props needed: multiple devices, team workspace setup",
				"Key visual: the product moment should be smooth and obvious",
			},
		},
		{
			ConceptName: "Social Proof Opener",
			Target:      audience + " seeking reliable solutions",
			Duration:    "15 seconds",
			CTR:         "7.8%",
			CVR:         "3.9%",
			Scenes: []types.ScriptScene{
				{Timeframe: "Hook - 0-3 seconds", Scene: "Montage of happy customers with testimonial quotes", Text: "Thousands of teams trust " + product},
				{Timeframe: "Value Prop - 4-10 seconds", Scene: "Real customer testimonial with product demo overlay", Text: "See why companies choose " + product + "."},
				{Timeframe: "CTA - 11-15 seconds", Scene: "Call-to-action with customer logos in background", Text: "Join them: " + strings.ToLower(cta) + "!"},
			},
			Notes: []string{
				"Use real customer testimonials if available",
				"Include recognizable company logos",
				"Maintain a " + strings.ToLower(voiceOrDefault(analysis)) + " tone throughout",
			},
		},
	}
	for i := range scripts {
		scripts[i].ID = newID()
		scripts[i].Status = types.ScriptStatusDraft
		scripts[i].Version = 1
		scripts[i].CreatedBy = w.Owner
		scripts[i].CreatedAt = now
		scripts[i].UpdatedAt = now
	}
	return scripts, nil
}

func voiceOrDefault(analysis types.Analysis) string {
	voice := strings.TrimSpace(analysis.Product.Voice)
	if voice == "" {
		return "professional"
	}
	return voice
}
