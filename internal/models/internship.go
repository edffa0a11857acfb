package models

import "strings"

// InternshipListing is one row of GET /internships.
type InternshipListing struct {
	ID       int        `json:"internship_id"`
	OrgName  string     `json:"org_name"`
	Title    string     `json:"title"`
	Location string     `json:"location"`
	Pincode  FlexString `json:"pincode"`
	Capacity int        `json:"capacity"`
	MinCGPA  float64    `json:"min_cgpa"`
	IsActive FlexBool   `json:"is_active"`
}

// InternshipList is the body of GET /internships.
type InternshipList struct {
	Items []InternshipListing `json:"items"`
}

// InternshipRequest is the body of POST /internships.
type InternshipRequest struct {
	OrgName       string  `json:"org_name"`
	Title         string  `json:"title"`
	Location      string  `json:"location,omitempty"`
	Pincode       string  `json:"pincode,omitempty"`
	Capacity      int     `json:"capacity"`
	MinCGPA       float64 `json:"min_cgpa"`
	ReqSkillsText string  `json:"req_skills_text,omitempty"`
}

// NewInternshipRequest returns a request with the form defaults.
func NewInternshipRequest() InternshipRequest {
	return InternshipRequest{Capacity: 1}
}

// Normalized trims every text field.
func (r InternshipRequest) Normalized() InternshipRequest {
	r.OrgName = strings.TrimSpace(r.OrgName)
	r.Title = strings.TrimSpace(r.Title)
	r.Location = strings.TrimSpace(r.Location)
	r.Pincode = strings.TrimSpace(r.Pincode)
	r.ReqSkillsText = strings.TrimSpace(r.ReqSkillsText)
	return r
}

// CreatedInternship is the service's echo of a successful create.
type CreatedInternship struct {
	Status string `json:"status"`
	ID     int    `json:"internship_id"`
}
