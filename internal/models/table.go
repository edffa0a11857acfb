package models

import "strconv"

// ResultColumns are the result table headers shared by every front end.
var ResultColumns = []string{"Student", "Email", "Internship", "Organization", "Location", "Pincode", "Final Score"}

// InternshipColumns are the internship table headers.
var InternshipColumns = []string{"ID", "Organization", "Title", "Location", "Pincode", "Capacity", "Min CGPA", "Active"}

// Cells flattens the row in ResultColumns order.
func (r ResultRow) Cells() []string {
	return []string{r.StudentName, r.Email, r.InternshipTitle, r.Organization, r.Location, string(r.Pincode), r.ScoreString()}
}

// Cells flattens the listing in InternshipColumns order.
func (it InternshipListing) Cells() []string {
	active := "yes"
	if !bool(it.IsActive) {
		active = "no"
	}
	return []string{
		strconv.Itoa(it.ID),
		it.OrgName,
		it.Title,
		it.Location,
		string(it.Pincode),
		strconv.Itoa(it.Capacity),
		strconv.FormatFloat(it.MinCGPA, 'f', -1, 64),
		active,
	}
}
