package models

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// API-facing labels of a registration form. The vision model is asked for
// exactly these properties and clients exchange field mappings keyed by them.
const (
	LabelLastName     = "Nom"
	LabelFirstName    = "Prénom"
	LabelNationality  = "Nationalité"
	LabelProfession   = "Profession"
	LabelPhone        = "Téléphone"
	LabelEmail        = "Email"
	LabelNeighborhood = "Quartier"
	LabelOriginChurch = "Eglise_d_origine"
	LabelBaptized     = "Baptise_par_Immersion"
	LabelVisiting     = "De_passage"
	LabelDiscovery    = "Moyen_de_connaissance"
)

// Labels lists every form label in the order the form presents them.
var Labels = []string{
	LabelLastName,
	LabelFirstName,
	LabelNationality,
	LabelProfession,
	LabelPhone,
	LabelEmail,
	LabelNeighborhood,
	LabelOriginChurch,
	LabelBaptized,
	LabelVisiting,
	LabelDiscovery,
}

var storageColumns = map[string]string{
	LabelLastName:     "nom",
	LabelFirstName:    "prenom",
	LabelNeighborhood: "quartier",
	LabelPhone:        "telephone",
	LabelBaptized:     "baptise",
	LabelVisiting:     "passage",
	LabelOriginChurch: "eglise",
	LabelEmail:        "email",
	LabelDiscovery:    "connaissance",
	LabelNationality:  "nationalite",
	LabelProfession:   "profession",
}

// StorageColumn returns the record-store column for a form label.
func StorageColumn(label string) (string, bool) {
	col, ok := storageColumns[CanonicalLabel(label)]
	return col, ok
}

// CanonicalLabel trims a label and converts it to Unicode NFC so that
// decomposed accents ("Prénom") match the constants above.
func CanonicalLabel(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}

// FieldMap is a form field mapping keyed by API-facing label.
type FieldMap map[string]string

// Normalize returns a copy keyed by canonical labels, containing every known
// label (missing ones as ""). Unknown keys are dropped.
func (m FieldMap) Normalize() FieldMap {
	out := make(FieldMap, len(Labels))
	for _, label := range Labels {
		out[label] = ""
	}
	for k, v := range m {
		label := CanonicalLabel(k)
		if _, known := storageColumns[label]; known {
			out[label] = v
		}
	}
	return out
}

// Get returns the value for label, tolerating non-canonical keys.
func (m FieldMap) Get(label string) string {
	if v, ok := m[label]; ok {
		return v
	}
	want := CanonicalLabel(label)
	for k, v := range m {
		if CanonicalLabel(k) == want {
			return v
		}
	}
	return ""
}

// UnknownLabels returns keys that do not correspond to any form label.
func (m FieldMap) UnknownLabels() []string {
	var unknown []string
	for k := range m {
		if _, ok := storageColumns[CanonicalLabel(k)]; !ok {
			unknown = append(unknown, k)
		}
	}
	return unknown
}
