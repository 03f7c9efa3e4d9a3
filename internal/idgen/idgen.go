// Package idgen provides short, URL-safe record ids backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is lower case only: command text is lower-cased before it is
// tokenized, and ids travel inside postback payloads.
var Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Length is the number of random characters generated.
var Length = 12

// Generate returns a new unique id.
func Generate() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}
