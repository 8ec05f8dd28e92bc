package models

// Member holds a single club member row from the members spreadsheet.
type Member struct {
	Timestamp string `json:"timestamp"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	RollNo    string `json:"rollNo"`
	Branch    string `json:"branch"`
	Batch     string `json:"batch"`
	Role      string `json:"role"`
	SubDomain string `json:"subDomain"`
	Image     string `json:"image"`
}
