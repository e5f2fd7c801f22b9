package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlag(t *testing.T) {
	cases := map[string]Flag{
		"":           FlagUnset,
		"   ":        FlagUnset,
		"Yes":        FlagYes,
		"TRUE":       FlagYes,
		" oui ":      FlagYes,
		"no":         FlagNo,
		"non":        FlagNo,
		"false":      FlagNo,
		"pas encore": FlagNo,
	}
	for text, want := range cases {
		assert.Equal(t, want, ParseFlag(text), "ParseFlag(%q)", text)
	}
}

func TestFlagConversions(t *testing.T) {
	assert.Nil(t, FlagUnset.Bool())
	require.NotNil(t, FlagYes.Bool())
	assert.True(t, *FlagYes.Bool())
	assert.False(t, *FlagNo.Bool())

	for _, f := range []Flag{FlagUnset, FlagYes, FlagNo} {
		assert.Equal(t, f, FlagOf(f.Bool()))
		assert.Equal(t, f, ParseFlag(f.Text()))
	}
}

func TestBadgeFor(t *testing.T) {
	assert.Equal(t, BadgeBaptized, BadgeFor(ParseFlag("oui")))
	assert.Equal(t, BadgeNotBaptized, BadgeFor(ParseFlag("no")))
	assert.Empty(t, BadgeFor(ParseFlag("")))
}

func TestFieldMapping(t *testing.T) {
	t.Run("decomposed accents bind to canonical labels", func(t *testing.T) {
		decomposed := "Pre\u0301nom"
		rec := FromFields(FieldMap{decomposed: "Marie", LabelLastName: "Dupont"})
		assert.Equal(t, "Marie", rec.FirstName)
		assert.Equal(t, "Dupont", rec.LastName)
	})

	t.Run("missing labels become empty and unknown keys are dropped", func(t *testing.T) {
		f := FieldMap{LabelEmail: "m@example.org", "Age": "40"}.Normalize()
		assert.Len(t, f, len(Labels))
		assert.Equal(t, "m@example.org", f[LabelEmail])
		assert.Equal(t, "", f[LabelPhone])
		_, hasAge := f["Age"]
		assert.False(t, hasAge)
		assert.Equal(t, []string{"Age"}, FieldMap{"Age": "40"}.UnknownLabels())
	})

	t.Run("fields round-trip through a record", func(t *testing.T) {
		in := FieldMap{
			LabelLastName:     "Dupont",
			LabelFirstName:    "Jean",
			LabelNationality:  "Française",
			LabelProfession:   "Enseignant",
			LabelPhone:        "+33 6 12 34 56 78",
			LabelEmail:        "jean@example.org",
			LabelNeighborhood: "Belleville",
			LabelOriginChurch: "Saint-Pierre",
			LabelBaptized:     "Yes",
			LabelVisiting:     "No",
			LabelDiscovery:    "Un ami",
		}
		assert.Equal(t, in, FromFields(in).Fields())
	})

	t.Run("storage columns", func(t *testing.T) {
		col, ok := StorageColumn("Nationalité")
		require.True(t, ok)
		assert.Equal(t, "nationalite", col)
		_, ok = StorageColumn("Age")
		assert.False(t, ok)
	})
}

func TestWithMutableFrom(t *testing.T) {
	existing := Record{ID: "r1", LastName: "Dupont", Email: "old@example.org"}
	updated := existing.WithMutableFrom(Record{ID: "ignored", LastName: "Durand"})
	assert.Equal(t, "r1", updated.ID)
	assert.Equal(t, "Durand", updated.LastName)
	assert.Empty(t, updated.Email)
	assert.Equal(t, "Jean Dupont", Record{FirstName: "Jean", LastName: "Dupont"}.DisplayName())
}
