package extraction

import "accueil/internal/registration/models"

var fieldDescriptions = map[string]string{
	models.LabelLastName:     "Name provided in the form",
	models.LabelFirstName:    "First name provided in the form",
	models.LabelNationality:  "Nationality provided in the form",
	models.LabelProfession:   "Profession provided in the form",
	models.LabelPhone:        "Phone number provided in the form",
	models.LabelEmail:        "Email provided in the form",
	models.LabelNeighborhood: "Quarter provided in the form",
	models.LabelOriginChurch: "Name of the church of origin provided in the form",
	models.LabelBaptized:     "Baptism status provided in the form either yes or no",
	models.LabelVisiting:     "De passage status provided in the form",
	models.LabelDiscovery:    "Means of knowledge provided in the form",
}

// schema is the subset of the Gemini OpenAPI schema object the request uses.
type schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Nullable    *bool             `json:"nullable,omitempty"`
	Items       *schema           `json:"items,omitempty"`
	Properties  map[string]schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
	// PropertyOrdering keeps the generated JSON in form order.
	PropertyOrdering []string `json:"propertyOrdering,omitempty"`
}

// responseSchema constrains the answer to an array of form objects, each
// with every label as a required, non-nullable string.
func responseSchema() schema {
	notNull := false
	props := make(map[string]schema, len(models.Labels))
	for _, label := range models.Labels {
		props[label] = schema{
			Type:        "STRING",
			Description: fieldDescriptions[label],
			Nullable:    &notNull,
		}
	}
	required := append([]string(nil), models.Labels...)
	return schema{
		Type: "ARRAY",
		Items: &schema{
			Type:             "OBJECT",
			Properties:       props,
			Required:         required,
			PropertyOrdering: required,
		},
	}
}
