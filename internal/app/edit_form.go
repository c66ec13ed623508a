package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mindcue/internal/types"
	"mindcue/internal/workflow"
)

type editField struct {
	field workflow.Field
	input textinput.Model
}

// editForm holds one input per editable analysis field. Values are written
// through to the controller on every change, so the form never owns state
// the draft does not already have.
type editForm struct {
	fields []editField
	focus  int
}

func newEditForm(draft *types.Analysis, width int) editForm {
	form := editForm{}
	for _, field := range workflow.Fields() {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 400
		in.Width = width
		if field.IsList() {
			in.Placeholder = "comma separated"
		}
		in.SetValue(workflow.FieldValue(draft, field))
		form.fields = append(form.fields, editField{field: field, input: in})
	}
	form.setFocus(0)
	return form
}

func (f *editForm) active() bool {
	return len(f.fields) > 0
}

func (f *editForm) setFocus(index int) {
	if len(f.fields) == 0 {
		return
	}
	index = (index + len(f.fields)) % len(f.fields)
	for i := range f.fields {
		if i == index {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
	f.focus = index
}

func (f *editForm) next() { f.setFocus(f.focus + 1) }
func (f *editForm) prev() { f.setFocus(f.focus - 1) }

func (f *editForm) setWidth(width int) {
	for i := range f.fields {
		f.fields[i].input.Width = width
	}
}

// update forwards msg to the focused input and reports the field and value
// when the text changed.
func (f *editForm) update(msg tea.Msg) (workflow.Field, string, bool, tea.Cmd) {
	if len(f.fields) == 0 {
		return "", "", false, nil
	}
	current := &f.fields[f.focus]
	before := current.input.Value()
	var cmd tea.Cmd
	current.input, cmd = current.input.Update(msg)
	after := current.input.Value()
	return current.field, after, after != before, cmd
}

func (f *editForm) view() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Edit analysis"))
	b.WriteString("\n")
	for i, ef := range f.fields {
		label := editLabelStyle
		if i == f.focus {
			label = editLabelActiveStyle
		}
		b.WriteString(label.Render(ef.field.Label()))
		b.WriteString("\n")
		b.WriteString(ef.input.View())
		if i < len(f.fields)-1 {
			b.WriteString("\n")
		}
	}
	return editFrameStyle.Render(b.String())
}
