package flowedit

import (
	"strings"

	petname "github.com/dustinkirkland/golang-petname"
)

// generateName returns a human-readable "Adjective Animal" step name.
func generateName() string {
	words := strings.Split(petname.Generate(2, " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
