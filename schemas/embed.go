// Package schemas holds the JSON Schemas for structured model responses.
package schemas

import _ "embed"

// PitchGeneration validates the pitch generation response.
//
//go:embed pitch_generation.schema.json
var PitchGeneration string

// EmployerContext validates the research summarizer response.
//
//go:embed employer_context.schema.json
var EmployerContext string

// Files lists every schema file in this directory.
var Files = []string{
	"pitch_generation.schema.json",
	"employer_context.schema.json",
}
