// Package payload renders a finished build into the card-style JSON document
// delivered to webhook subscribers.
package payload

import (
	"buildhooks/internal/artifacts"
	"buildhooks/internal/build"
)

// Summary is the fixed card summary.
const Summary = "Build completed"

// Theme colours for the card accent.
const (
	ColorSuccess = "229911"
	ColorFailure = "AA0000"
)

// Fact names in the order they appear.
const (
	FactStatus    = "Status"
	FactMessage   = "Message"
	FactArtifacts = "Artifacts"
)

// Payload is the wire document POSTed to every subscriber.
type Payload struct {
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	ThemeColor string    `json:"themeColor"`
	Sections   []Section `json:"sections"`
}

// Section groups facts under an optional heading.
type Section struct {
	Title string `json:"title,omitempty"`
	Facts []Fact `json:"facts"`
}

// Fact is one name/value row; values may contain markdown links.
type Fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Build assembles the payload. Facts are emitted in a fixed order: Status,
// then Message for failed builds, then Artifacts when any were resolved.
func Build(facts build.Facts, locations artifacts.Locations) Payload {
	logURL := build.LogURL(facts)

	status, color := "Failed", ColorFailure
	if facts.Success {
		status, color = "Success", ColorSuccess
	}

	rows := []Fact{{Name: FactStatus, Value: link(status, logURL)}}
	if !facts.Success {
		rows = append(rows, Fact{Name: FactMessage, Value: facts.FailureMessage()})
	}
	if len(locations) > 0 {
		rows = append(rows, Fact{Name: FactArtifacts, Value: link("View", build.ArtifactsTabURL(facts))})
	}

	return Payload{
		Title:      facts.FullName,
		Summary:    Summary,
		ThemeColor: color,
		Sections:   []Section{{Facts: rows}},
	}
}

func link(text, url string) string {
	return "[" + text + "](" + url + ")"
}
