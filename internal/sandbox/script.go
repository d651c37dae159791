package sandbox

import "github.com/google/uuid"

// Script is immutable source text. Editing produces a new Script.
type Script struct {
	ID     string
	Name   string
	Source string
	// Engine overrides Config.Engine when set.
	Engine string
}

// NewScript creates a script with a fresh identifier. The engine is taken
// from the file extension of name when it has a known one.
func NewScript(name, source string) Script {
	return Script{
		ID:     uuid.NewString(),
		Name:   name,
		Source: source,
		Engine: engineForExt(name),
	}
}
