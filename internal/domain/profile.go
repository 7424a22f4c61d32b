package domain

// Profile is the customer record returned by the profile endpoint.
type Profile struct {
	CustomerID  string   `json:"customer_id,omitempty"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	DateOfBirth string   `json:"date_of_birth"`
	Citizenship string   `json:"citizenship"`
	MainEmail   string   `json:"main_email,omitempty"`
	Emails      []string `json:"emails,omitempty"`
	MainPhone   string   `json:"main_phone,omitempty"`
	Phones      []string `json:"phones,omitempty"`
	IsAdmin     bool     `json:"is_admin,omitempty"`
}

// Complete reports whether every field the repricing approval needs is filled in.
func (p Profile) Complete() bool {
	return p.FirstName != "" && p.LastName != "" && p.Citizenship != "" && p.DateOfBirth != ""
}
