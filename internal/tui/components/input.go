package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultLabelWidth = 16

// Input is a single-line text input.
type Input struct {
	label       string
	value       string
	placeholder string
	width       int
	focused     bool
	cursorPos   int
	maxLength   int
	required    bool
	err         string
}

// NewInput creates a new input field.
func NewInput(label string) *Input {
	return &Input{
		label:     label,
		width:     20,
		maxLength: 100,
	}
}

// SetValue sets the input value.
func (i *Input) SetValue(v string) *Input {
	i.value = v
	i.cursorPos = len(v)
	return i
}

// SetPlaceholder sets the placeholder text.
func (i *Input) SetPlaceholder(p string) *Input {
	i.placeholder = p
	return i
}

// SetWidth sets the input width.
func (i *Input) SetWidth(w int) *Input {
	i.width = w
	return i
}

// SetMaxLength sets the maximum input length.
func (i *Input) SetMaxLength(m int) *Input {
	i.maxLength = m
	return i
}

// SetRequired marks the field as required.
func (i *Input) SetRequired(r bool) *Input {
	i.required = r
	return i
}

// SetError sets an error message.
func (i *Input) SetError(e string) *Input {
	i.err = e
	return i
}

// Label returns the field label.
func (i *Input) Label() string {
	return i.label
}

// Focus sets the focus state.
func (i *Input) Focus(focused bool) {
	i.focused = focused
	if focused && i.cursorPos > len(i.value) {
		i.cursorPos = len(i.value)
	}
}

// IsFocused returns the focus state.
func (i *Input) IsFocused() bool {
	return i.focused
}

// Value returns the trimmed current value.
func (i *Input) Value() string {
	return strings.TrimSpace(i.value)
}

// HandleKey handles a key press.
func (i *Input) HandleKey(key string) {
	if !i.focused {
		return
	}

	switch key {
	case "backspace":
		if i.cursorPos > 0 {
			i.value = i.value[:i.cursorPos-1] + i.value[i.cursorPos:]
			i.cursorPos--
		}
	case "delete":
		if i.cursorPos < len(i.value) {
			i.value = i.value[:i.cursorPos] + i.value[i.cursorPos+1:]
		}
	case "left":
		if i.cursorPos > 0 {
			i.cursorPos--
		}
	case "right":
		if i.cursorPos < len(i.value) {
			i.cursorPos++
		}
	case "home", "ctrl+a":
		i.cursorPos = 0
	case "end", "ctrl+e":
		i.cursorPos = len(i.value)
	case "space":
		i.insert(" ")
	default:
		if len(key) == 1 {
			i.insert(key)
		}
	}
}

func (i *Input) insert(s string) {
	if len(i.value) >= i.maxLength {
		return
	}
	i.value = i.value[:i.cursorPos] + s + i.value[i.cursorPos:]
	i.cursorPos += len(s)
}

// Validate checks the required flag and clears any previous error.
func (i *Input) Validate() bool {
	if i.required && strings.TrimSpace(i.value) == "" {
		i.err = "Required"
		return false
	}
	i.err = ""
	return true
}

// Render renders the input with the default label width.
func (i *Input) Render() string {
	return i.RenderWithLabelWidth(defaultLabelWidth)
}

// RenderWithLabelWidth renders the input; a width of 0 omits the label.
func (i *Input) RenderWithLabelWidth(labelWidth int) string {
	valueStyle := lipgloss.NewStyle().Foreground(ColorText)
	focusStyle := lipgloss.NewStyle().Foreground(ColorTitle)
	errStyle := lipgloss.NewStyle().Foreground(ColorError)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	var display string
	displayLen := len(i.value)
	switch {
	case i.value == "" && i.placeholder != "" && !i.focused:
		display = mutedStyle.Render(i.placeholder)
		displayLen = len(i.placeholder)
	case i.focused:
		display = focusStyle.Render(i.value[:i.cursorPos] + "_" + i.value[i.cursorPos:])
		displayLen++
	default:
		display = valueStyle.Render(i.value)
	}
	if displayLen < i.width {
		display += strings.Repeat(" ", i.width-displayLen)
	}

	result := display
	if labelWidth > 0 {
		result = renderLabel(i.label, i.required, labelWidth) + " " + display
	}
	if i.err != "" {
		result += " " + errStyle.Render(i.err)
	}
	return result
}

func renderLabel(label string, required bool, width int) string {
	if required {
		label += "*"
	}
	return lipgloss.NewStyle().Foreground(ColorLabel).Width(width).Render(label + ":")
}

// Select picks one of a fixed list of options.
type Select struct {
	label    string
	options  []string
	selected int
	focused  bool
}

// NewSelect creates a new select input.
func NewSelect(label string, options []string) *Select {
	return &Select{
		label:   label,
		options: options,
	}
}

// SetSelected sets the selected index; out of range indexes are ignored.
func (s *Select) SetSelected(idx int) *Select {
	if idx >= 0 && idx < len(s.options) {
		s.selected = idx
	}
	return s
}

// Label returns the field label.
func (s *Select) Label() string {
	return s.label
}

// Focus sets the focus state.
func (s *Select) Focus(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state.
func (s *Select) IsFocused() bool {
	return s.focused
}

// Value returns the selected option.
func (s *Select) Value() string {
	if s.selected >= 0 && s.selected < len(s.options) {
		return s.options[s.selected]
	}
	return ""
}

// SelectedIndex returns the selected index.
func (s *Select) SelectedIndex() int {
	return s.selected
}

// HandleKey handles a key press.
func (s *Select) HandleKey(key string) {
	if !s.focused {
		return
	}

	switch key {
	case "left", "h":
		if s.selected > 0 {
			s.selected--
		}
	case "right", "l":
		if s.selected < len(s.options)-1 {
			s.selected++
		}
	}
}

// Render renders the select with the default label width.
func (s *Select) Render() string {
	return s.RenderWithLabelWidth(defaultLabelWidth)
}

// RenderWithLabelWidth renders the select; a width of 0 omits the label.
func (s *Select) RenderWithLabelWidth(labelWidth int) string {
	optStyle := lipgloss.NewStyle().Foreground(ColorLabel)
	selStyle := lipgloss.NewStyle().Foreground(ColorTitle).Bold(true)

	var b strings.Builder
	if labelWidth > 0 {
		b.WriteString(renderLabel(s.label, false, labelWidth))
		b.WriteString(" ")
	}

	for i, opt := range s.options {
		if i > 0 {
			b.WriteString(" ")
		}
		switch {
		case i == s.selected && s.focused:
			b.WriteString(selStyle.Render("[" + opt + "]"))
		case i == s.selected:
			b.WriteString(selStyle.Render("(" + opt + ")"))
		default:
			b.WriteString(optStyle.Render(" " + opt + " "))
		}
	}

	return b.String()
}

// FormField is a focusable form component.
type FormField interface {
	Label() string
	Value() string
	Focus(bool)
	IsFocused() bool
	HandleKey(string)
	RenderWithLabelWidth(int) string
}

var (
	_ FormField = (*Input)(nil)
	_ FormField = (*Select)(nil)
)

// Form is a vertical list of fields with tab navigation.
type Form struct {
	title      string
	fields     []FormField
	focusIndex int
	submitted  bool
	cancelled  bool
	err        string
}

// NewForm creates a new form.
func NewForm(title string) *Form {
	return &Form{title: title}
}

// AddField appends a field; the first field added takes focus.
func (f *Form) AddField(field FormField) *Form {
	f.fields = append(f.fields, field)
	if len(f.fields) == 1 {
		field.Focus(true)
	}
	return f
}

// Title returns the form title.
func (f *Form) Title() string {
	return f.title
}

// HandleKey handles form navigation and forwards other keys to the
// focused field.
func (f *Form) HandleKey(key string) {
	switch key {
	case "tab", "down":
		f.moveFocus(1)
	case "shift+tab", "up":
		f.moveFocus(-1)
	case "ctrl+s":
		f.submitted = true
	case "esc":
		f.cancelled = true
	case "enter":
		if f.focusIndex == len(f.fields)-1 {
			f.submitted = true
		} else {
			f.moveFocus(1)
		}
	default:
		if f.focusIndex < len(f.fields) {
			f.fields[f.focusIndex].HandleKey(key)
		}
	}
}

func (f *Form) moveFocus(delta int) {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex = (f.focusIndex + delta + len(f.fields)) % len(f.fields)
	f.fields[f.focusIndex].Focus(true)
}

// IsSubmitted returns true if form was submitted.
func (f *Form) IsSubmitted() bool {
	return f.submitted
}

// IsCancelled returns true if form was cancelled.
func (f *Form) IsCancelled() bool {
	return f.cancelled
}

// Reopen clears the submitted flag so a rejected form can be corrected.
func (f *Form) Reopen(err string) {
	f.submitted = false
	f.err = err
}

// SetError sets an error message.
func (f *Form) SetError(err string) {
	f.err = err
}

// Values returns field values keyed by label.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		out[field.Label()] = field.Value()
	}
	return out
}

// Render renders the form at the default width.
func (f *Form) Render() string {
	return f.RenderResponsive(0)
}

// RenderResponsive renders the form for the given terminal width.
func (f *Form) RenderResponsive(width int) string {
	s := DefaultStyles()

	labelWidth := defaultLabelWidth
	if width > 0 && width < 60 {
		labelWidth = 10
	}

	var b strings.Builder

	b.WriteString(s.Title.Render(fmt.Sprintf("=== %s ===", f.title)))
	b.WriteString("\n\n")

	for _, field := range f.fields {
		b.WriteString(field.RenderWithLabelWidth(labelWidth))
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(s.Error.Render("Error: " + f.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.Help.Render(HelpText(width,
		"Tab/Down:Next  Shift+Tab/Up:Prev  Ctrl+S:Save  Esc:Cancel",
		"Tab:Next  Ctrl+S:Save  Esc:Cancel")))

	return b.String()
}
