// Package present projects workflow state into markdown for the TUI and CLI.
package present

import (
	"fmt"
	"strings"

	"mindcue/internal/types"
	"mindcue/internal/workflow"
)

// Escape neutralizes markdown block syntax in free text so user-typed values
// render literally.
func Escape(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.ReplaceAll(line, "`", "\\`")
		trimmed := strings.TrimLeft(line, " \t")
		prefix := line[:len(line)-len(trimmed)]
		switch {
		case strings.HasPrefix(trimmed, "#"),
			strings.HasPrefix(trimmed, ">"),
			strings.HasPrefix(trimmed, "- "),
			strings.HasPrefix(trimmed, "* "),
			strings.HasPrefix(trimmed, "+ "),
			isNumberedList(trimmed):
			lines[i] = prefix + "\\" + trimmed
		default:
			lines[i] = prefix + trimmed
		}
	}
	return strings.Join(lines, "\n")
}

func isNumberedList(text string) bool {
	dot := strings.IndexByte(text, '.')
	if dot <= 0 || dot+1 >= len(text) || text[dot+1] != ' ' {
		return false
	}
	for i := 0; i < dot; i++ {
		if text[i] < '0' || text[i] > '9' {
			return false
		}
	}
	return true
}

func inline(text string) string {
	return Escape(strings.Join(strings.Fields(text), " "))
}

func orDash(text string) string {
	if strings.TrimSpace(text) == "" {
		return "_not set_"
	}
	return inline(text)
}

func list(b *strings.Builder, values []string) {
	if len(values) == 0 {
		b.WriteString("- _none_\n")
		return
	}
	for _, value := range values {
		fmt.Fprintf(b, "- %s\n", inline(value))
	}
}

// Processing renders the cosmetic progress list for a waiting phase. Lines up
// to done are checked off.
func Processing(phase workflow.Phase, done int) string {
	lines := workflow.StatusLines(phase)
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for i, line := range lines {
		mark := "[ ]"
		if i < done {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "- %s %s\n", mark, line)
	}
	return b.String()
}

func Analysis(a *types.Analysis) string {
	if a == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("### Product analysis complete\n\n")
	if url := strings.TrimSpace(a.SourceURL); url != "" {
		fmt.Fprintf(&b, "Source: <%s>\n\n", url)
	}
	b.WriteString("#### Product details\n\n")
	fmt.Fprintf(&b, "- **Name:** %s\n", orDash(a.Product.Name))
	fmt.Fprintf(&b, "- **Description:** %s\n", orDash(a.Product.Description))
	fmt.Fprintf(&b, "- **Vertical:** %s\n", orDash(a.Product.Vertical))
	fmt.Fprintf(&b, "- **Primary voice:** %s\n", orDash(a.Product.Voice))
	fmt.Fprintf(&b, "- **Call to action:** %s\n\n", orDash(a.Product.CTA))
	b.WriteString("**Unique selling points**\n\n")
	list(&b, a.Product.USPs)
	b.WriteString("\n#### Target audience\n\n")
	fmt.Fprintf(&b, "- **Primary demographics:** %s\n\n", orDash(a.Audience.Demographics))
	b.WriteString("**Pain points**\n\n")
	list(&b, a.Audience.PainPoints)
	b.WriteString("\n**Motivations**\n\n")
	list(&b, a.Audience.Motivations)
	return b.String()
}

func Strategy(s workflow.StrategySummary) string {
	var b strings.Builder
	b.WriteString("### Video strategy & concepts\n\n")
	fmt.Fprintf(&b, "| Creative health score | Weekly videos | Est. ad spend |\n|---|---|---|\n| %s | %d | %s |\n\n",
		s.HealthScore, s.WeeklyVideos, s.AdSpend)
	b.WriteString("#### Top performing concepts\n\n")
	for i, c := range s.Concepts {
		fmt.Fprintf(&b, "**Concept %d: %s**\n\n", i+1, inline(c.Name))
		fmt.Fprintf(&b, "- Hook strategy: %s\n", inline(c.Hook))
		fmt.Fprintf(&b, "- Expected CTR: %s, expected CVR: %s, audience fit: %s\n\n", c.CTR, c.CVR, c.Fit)
	}
	return b.String()
}

func Script(index int, s types.Script) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#### Script %d: %s\n\n", index, inline(s.ConceptName))
	fmt.Fprintf(&b, "- **Target:** %s\n", orDash(s.Target))
	fmt.Fprintf(&b, "- **Duration:** %s\n", orDash(s.Duration))
	fmt.Fprintf(&b, "- **CTR:** %s  **CVR:** %s\n", orDash(s.CTR), orDash(s.CVR))
	if s.Status != "" {
		fmt.Fprintf(&b, "- **Status:** %s (v%d)\n", s.Status, s.Version)
	}
	b.WriteString("\n")
	for _, scene := range s.Scenes {
		fmt.Fprintf(&b, "**[%s]**\n\n", inline(scene.Timeframe))
		fmt.Fprintf(&b, "> Scene: %s\n>\n> \"%s\"\n\n", inline(scene.Scene), inline(scene.Text))
	}
	if len(s.Notes) > 0 {
		b.WriteString("**Production notes**\n\n")
		list(&b, s.Notes)
		b.WriteString("\n")
	}
	return b.String()
}

func Scripts(scripts []types.Script) string {
	var b strings.Builder
	b.WriteString("### Your video scripts are ready!\n\n")
	if len(scripts) == 0 {
		b.WriteString("_No scripts yet._\n")
		return b.String()
	}
	for i, s := range scripts {
		b.WriteString(Script(i+1, s))
	}
	return b.String()
}

// Project renders a stored project with its analysis and scripts.
func Project(p *types.Project) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", inline(p.Name))
	fmt.Fprintf(&b, "- **ID:** `%s`\n", p.ID)
	fmt.Fprintf(&b, "- **Status:** %s\n", p.Status)
	if p.Owner != "" {
		fmt.Fprintf(&b, "- **Owner:** %s\n", inline(p.Owner))
	}
	fmt.Fprintf(&b, "- **Created:** %s\n\n", p.CreatedAt.Format("2006-01-02 15:04 MST"))
	b.WriteString(Analysis(&p.Analysis))
	b.WriteString("\n")
	b.WriteString(Scripts(p.Scripts))
	return b.String()
}

// PhaseContent renders the block shown under the transcript for the state's
// phase. step drives the processing checklist.
func PhaseContent(state workflow.State, step int) string {
	switch state.Phase {
	case workflow.PhaseProcessing, workflow.PhaseStrategyProcessing, workflow.PhaseScriptProcessing:
		return Processing(state.Phase, step)
	case workflow.PhaseResults:
		return Analysis(state.Draft)
	case workflow.PhaseStrategyResults:
		return Strategy(workflow.Strategy())
	case workflow.PhaseScriptResults:
		return Scripts(state.Scripts)
	default:
		return ""
	}
}

// ScriptsPlainText is the clipboard form of a script set.
func ScriptsPlainText(scripts []types.Script) string {
	var b strings.Builder
	for i, s := range scripts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Script %d: %s\n", i+1, s.ConceptName)
		fmt.Fprintf(&b, "Target: %s | Duration: %s | CTR: %s | CVR: %s\n", s.Target, s.Duration, s.CTR, s.CVR)
		for _, scene := range s.Scenes {
			fmt.Fprintf(&b, "[%s] %s\n  \"%s\"\n", scene.Timeframe, scene.Scene, scene.Text)
		}
		for _, note := range s.Notes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
	}
	return b.String()
}
