package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldStripsDiacritics(t *testing.T) {
	cases := map[string]string{
		"Énergies renouvelables":  "energies renouvelables",
		"Génie Électrique":        "genie electrique",
		"  L'hydraulique à 2iE  ": "l'hydraulique a 2ie",
		"café":                    "cafe",
		"plain ascii":             "plain ascii",
		"":                        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Fold(in), in)
	}
}

func TestSearchTextJoinsNonEmptyParts(t *testing.T) {
	got := SearchText("Traité d'hydrologie", "Kaboré", "978-2-1234-5680-3")
	assert.Equal(t, "traite d'hydrologie kabore 978-2-1234-5680-3", got)

	// empty ISBN leaves no trailing separator
	assert.Equal(t, "titre auteur", SearchText("Titre", "Auteur", ""))
	assert.Equal(t, "", SearchText("", "", ""))
}
