package models

import (
	"strings"
	"time"
)

// Record is one persisted member registration.
//
// Invariants:
//   - ID and CreatedAt are assigned by the store on creation and never change
//   - every text field is optional; Baptized and Visiting may be unset
//   - updates overwrite every mutable field at once
type Record struct {
	ID           string    `json:"id"`
	LastName     string    `json:"nom"`
	FirstName    string    `json:"prenom"`
	Nationality  string    `json:"nationalite"`
	Profession   string    `json:"profession"`
	Phone        string    `json:"telephone"`
	Email        string    `json:"email"`
	Neighborhood string    `json:"quartier"`
	OriginChurch string    `json:"eglise"`
	Baptized     Flag      `json:"-"`
	Visiting     Flag      `json:"-"`
	Discovery    string    `json:"connaissance"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromFields builds a record's mutable fields from a form field mapping.
// Labels are matched in canonical form; missing labels become empty.
func FromFields(fields FieldMap) Record {
	f := fields.Normalize()
	return Record{
		LastName:     f[LabelLastName],
		FirstName:    f[LabelFirstName],
		Nationality:  f[LabelNationality],
		Profession:   f[LabelProfession],
		Phone:        f[LabelPhone],
		Email:        f[LabelEmail],
		Neighborhood: f[LabelNeighborhood],
		OriginChurch: f[LabelOriginChurch],
		Baptized:     ParseFlag(f[LabelBaptized]),
		Visiting:     ParseFlag(f[LabelVisiting]),
		Discovery:    f[LabelDiscovery],
	}
}

// Fields returns the record as a form field mapping.
func (r Record) Fields() FieldMap {
	return FieldMap{
		LabelLastName:     r.LastName,
		LabelFirstName:    r.FirstName,
		LabelNationality:  r.Nationality,
		LabelProfession:   r.Profession,
		LabelPhone:        r.Phone,
		LabelEmail:        r.Email,
		LabelNeighborhood: r.Neighborhood,
		LabelOriginChurch: r.OriginChurch,
		LabelBaptized:     r.Baptized.Text(),
		LabelVisiting:     r.Visiting.Text(),
		LabelDiscovery:    r.Discovery,
	}
}

// WithMutableFrom returns r with every mutable field replaced by src's.
// Identity and creation time are kept.
func (r Record) WithMutableFrom(src Record) Record {
	src.ID = r.ID
	src.CreatedAt = r.CreatedAt
	return src
}

// DisplayName renders "Prénom Nom" for list views.
func (r Record) DisplayName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}
