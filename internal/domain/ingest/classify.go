package ingest

import (
	"fmt"

	"github.com/metafirst/supervisor/internal/domain/extraction"
)

// Outcome is the automatic classification of one ingest.
type Outcome struct {
	Status                   Status
	InferredSampleIdentifier *string
	MatchedSampleID          *string
	Blocked                  bool
	Reason                   string
}

// ProjectState is what classification needs to know about a project.
type ProjectState struct {
	// Operational is true when the project has an ACTIVE RDMP version.
	Operational bool
	Rules       *extraction.RuleSet
	Ignore      *extraction.PatternList
}

// SampleFinder returns the ID of the project's sample with the exact
// identifier, if any.
type SampleFinder func(identifier string) (sampleID string, found bool, err error)

// Classify decides the automatic status of an ingest. It never yields
// ASSIGNED: binding a file to a sample is always a human decision.
//
//  1. A non-operational project leaves the ingest PENDING and blocked.
//  2. A path matching an ignore pattern is IGNORED.
//  3. No extraction rule matching leaves it PENDING with no identifier.
//  4. An inferred identifier with an exact sample match is MATCHED;
//     otherwise it stays PENDING with the identifier as a suggestion.
func Classify(relativePath string, state ProjectState, find SampleFinder) (Outcome, error) {
	if !state.Operational {
		return Outcome{Status: StatusPending, Blocked: true, Reason: "project has no active rdmp version"}, nil
	}
	if pattern, ok := state.Ignore.Match(relativePath); ok {
		return Outcome{Status: StatusIgnored, Reason: fmt.Sprintf("matches ignore pattern %q", pattern)}, nil
	}

	identifier, ok := state.Rules.Extract(relativePath)
	if !ok {
		return Outcome{Status: StatusPending, Reason: "no extraction rule matched"}, nil
	}

	sampleID, found, err := find(identifier)
	if err != nil {
		return Outcome{}, err
	}
	if !found {
		return Outcome{
			Status:                   StatusPending,
			InferredSampleIdentifier: &identifier,
			Reason:                   fmt.Sprintf("no sample %q; suggested for creation", identifier),
		}, nil
	}
	return Outcome{
		Status:                   StatusMatched,
		InferredSampleIdentifier: &identifier,
		MatchedSampleID:          &sampleID,
		Reason:                   fmt.Sprintf("matches sample %q", identifier),
	}, nil
}

// Differs reports whether applying out would change ing.
func (out Outcome) Differs(ing *PendingIngest) bool {
	return ing.Status != out.Status ||
		ing.Blocked != out.Blocked ||
		ing.Reason != out.Reason ||
		!equalPtr(ing.InferredSampleIdentifier, out.InferredSampleIdentifier) ||
		!equalPtr(ing.MatchedSampleID, out.MatchedSampleID)
}

// Apply copies out onto ing.
func (out Outcome) Apply(ing *PendingIngest) {
	ing.Status = out.Status
	ing.Blocked = out.Blocked
	ing.Reason = out.Reason
	ing.InferredSampleIdentifier = out.InferredSampleIdentifier
	ing.MatchedSampleID = out.MatchedSampleID
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
