package gui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/pminternship/alloc-admin/internal/models"
)

// internshipForm holds the entries of the Add Internship dialog.
type internshipForm struct {
	org      *widget.Entry
	title    *widget.Entry
	location *widget.Entry
	pincode  *widget.Entry
	capacity *widget.Entry
	minCGPA  *widget.Entry
	skills   *widget.Entry
}

func newInternshipForm() *internshipForm {
	def := models.NewInternshipRequest()
	f := &internshipForm{
		org:      widget.NewEntry(),
		title:    widget.NewEntry(),
		location: widget.NewEntry(),
		pincode:  widget.NewEntry(),
		capacity: widget.NewEntry(),
		minCGPA:  widget.NewEntry(),
		skills:   widget.NewMultiLineEntry(),
	}
	f.org.SetPlaceHolder("Organization")
	f.title.SetPlaceHolder("Role title")
	f.capacity.SetText(strconv.Itoa(def.Capacity))
	f.minCGPA.SetText(strconv.FormatFloat(def.MinCGPA, 'f', -1, 64))
	f.skills.SetPlaceHolder("python, sql, ...")
	f.skills.SetMinRowsVisible(3)
	f.capacity.Validator = func(s string) error {
		_, err := parseCapacity(s)
		return err
	}
	f.minCGPA.Validator = func(s string) error {
		_, err := parseCGPA(s)
		return err
	}
	return f
}

func (f *internshipForm) items() []*widget.FormItem {
	return []*widget.FormItem{
		widget.NewFormItem("Organization", f.org),
		widget.NewFormItem("Title", f.title),
		widget.NewFormItem("Location", f.location),
		widget.NewFormItem("Pincode", f.pincode),
		widget.NewFormItem("Capacity", f.capacity),
		widget.NewFormItem("Min CGPA", f.minCGPA),
		widget.NewFormItem("Required skills", f.skills),
	}
}

// request reads the entries. Required fields and ranges are checked by the engine.
func (f *internshipForm) request() (models.InternshipRequest, error) {
	capacity, err := parseCapacity(f.capacity.Text)
	if err != nil {
		return models.InternshipRequest{}, err
	}
	cgpa, err := parseCGPA(f.minCGPA.Text)
	if err != nil {
		return models.InternshipRequest{}, err
	}
	return models.InternshipRequest{
		OrgName:       f.org.Text,
		Title:         f.title.Text,
		Location:      f.location.Text,
		Pincode:       f.pincode.Text,
		Capacity:      capacity,
		MinCGPA:       cgpa,
		ReqSkillsText: f.skills.Text,
	}, nil
}

func parseCapacity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.NewInternshipRequest().Capacity, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("capacity must be a whole number")
	}
	return n, nil
}

func parseCGPA(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("min CGPA must be a number")
	}
	return v, nil
}

func (d *Dashboard) showInternshipDialog() {
	form := newInternshipForm()
	dlg := dialog.NewForm("Add Internship", "Create", "Cancel", form.items(), func(ok bool) {
		if !ok {
			return
		}
		req, err := form.request()
		if err != nil {
			d.statusBar.SetError(err.Error())
			return
		}
		d.launch(func(ctx context.Context) (models.WorkflowStatus, error) {
			return d.engine.CreateInternship(ctx, req)
		})
	}, d.window)
	dlg.Resize(fyne.NewSize(460, 0))
	dlg.Show()
}
