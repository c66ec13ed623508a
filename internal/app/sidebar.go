package app

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"mindcue/internal/types"
)

// sidebar lists the "new project" entry followed by project history, newest
// first. Index 0 is always the new-project entry.
type sidebar struct {
	projects []types.ProjectSummary
	cursor   int
	activeID string
	focused  bool
}

func (s *sidebar) setProjects(projects []types.ProjectSummary) {
	s.projects = projects
	if s.cursor > len(projects) {
		s.cursor = len(projects)
	}
}

func (s *sidebar) move(delta int) {
	s.cursor += delta
	if s.cursor < 0 {
		s.cursor = 0
	}
	if last := len(s.projects); s.cursor > last {
		s.cursor = last
	}
}

// selected returns the project under the cursor, or false for the
// new-project entry.
func (s *sidebar) selected() (types.ProjectSummary, bool) {
	if s.cursor <= 0 || s.cursor > len(s.projects) {
		return types.ProjectSummary{}, false
	}
	return s.projects[s.cursor-1], true
}

func (s *sidebar) view(user types.User, height int) string {
	width := sidebarWidth - 2
	var lines []string
	lines = append(lines, headerStyle.Render("MindCue"), "")

	entry := truncate("+ New project", width)
	if s.focused && s.cursor == 0 {
		entry = selectedStyle.Render(entry)
	} else {
		entry = newProjectStyle.Render(entry)
	}
	lines = append(lines, entry, dividerStyle.Render(strings.Repeat("─", width)))

	if len(s.projects) == 0 {
		lines = append(lines, projectMetaStyle.Render("No projects yet"))
	}
	for i, p := range s.projects {
		marker := "  "
		if p.ID == s.activeID {
			marker = "▸ "
		}
		name := truncate(marker+p.Name, width)
		if s.focused && s.cursor == i+1 {
			name = selectedStyle.Render(name)
		} else {
			name = projectStyle.Render(name)
		}
		meta := fmt.Sprintf("  %s · %d scripts", p.CreatedAt.Local().Format("Jan 2 15:04"), p.ScriptCount)
		lines = append(lines, name, projectMetaStyle.Render(truncate(meta, width)))
	}

	footer := identityStyle.Render(truncate("● "+user.Label(), width))
	used := len(lines) + 1
	for used < height-1 {
		lines = append(lines, "")
		used++
	}
	lines = append(lines, footer)

	style := sidebarStyle
	if s.focused {
		style = sidebarFocusedStyle
	}
	return style.Width(sidebarWidth).Render(strings.Join(lines, "\n"))
}

func truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "…")
}
