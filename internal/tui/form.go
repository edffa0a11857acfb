package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/pminternship/alloc-admin/internal/models"
)

type formField struct {
	label string
	input textinput.Model
}

// internshipForm is the inline Add Internship form. Enter advances; enter
// on the last field submits.
type internshipForm struct {
	fields []formField
	focus  int
}

func newInternshipForm() *internshipForm {
	def := models.NewInternshipRequest()
	field := func(label, placeholder, value string) formField {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholder
		in.CharLimit = 200
		in.Width = 40
		in.SetValue(value)
		return formField{label: label, input: in}
	}

	f := &internshipForm{fields: []formField{
		field("Organization", "required", ""),
		field("Title", "required", ""),
		field("Location", "", ""),
		field("Pincode", "", ""),
		field("Capacity", "", strconv.Itoa(def.Capacity)),
		field("Min CGPA", "0-10", strconv.FormatFloat(def.MinCGPA, 'f', -1, 64)),
		field("Skills", "python, sql, ...", ""),
	}}
	f.fields[0].input.Focus()
	return f
}

func (f *internshipForm) current() *textinput.Model {
	return &f.fields[f.focus].input
}

func (f *internshipForm) last() bool {
	return f.focus == len(f.fields)-1
}

func (f *internshipForm) move(delta int) {
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Focus()
}

func (f *internshipForm) value(i int) string {
	return strings.TrimSpace(f.fields[i].input.Value())
}

// request reads the form. Required fields and ranges are checked by the engine.
func (f *internshipForm) request() (models.InternshipRequest, error) {
	req := models.NewInternshipRequest()
	req.OrgName = f.value(0)
	req.Title = f.value(1)
	req.Location = f.value(2)
	req.Pincode = f.value(3)
	req.ReqSkillsText = f.value(6)

	if s := f.value(4); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return req, fmt.Errorf("capacity must be a whole number")
		}
		req.Capacity = n
	}
	if s := f.value(5); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return req, fmt.Errorf("min CGPA must be a number")
		}
		req.MinCGPA = v
	}
	return req, nil
}

func (f *internshipForm) View() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Add Internship"))
	b.WriteString("\n")
	for i, fl := range f.fields {
		marker := "  "
		if i == f.focus {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%-13s %s\n", marker, fl.label, fl.input.View())
	}
	b.WriteString(helpStyle.Render("enter next/submit • shift+tab back • esc cancel"))
	return b.String()
}
