package containers

import (
	"fmt"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
)

// Container identifies one partition of the feedback document store.
// The set is closed: anything outside the allow-list is rejected before any
// store call.
type Container string

const (
	MLBOfficial   Container = "mlb"
	MLBUnofficial Container = "mlb-unofficial"
	NBAOfficial   Container = "nba-official"
	NBAUnofficial Container = "nba-unofficial"

	// Legacy fine-grained feedback containers, kept for deployments that
	// still partition partner and user feedback separately.
	PartnerHelpful   Container = "mlb-partner-feedback-helpful"
	PartnerUnhelpful Container = "mlb-partner-feedback-unhelpful"
	UserFeedback     Container = "mlb-user-feedback"
	UserUnhelpful    Container = "mlb-user-feedback-unhelpful"
)

// Info describes a container for the console's container picker.
type Info struct {
	Value Container `json:"value"`
	Label string    `json:"label"`
}

// All lists every allow-listed container, primary containers first.
var All = []Info{
	{MLBOfficial, "MLB Official"},
	{MLBUnofficial, "MLB Unofficial"},
	{NBAOfficial, "NBA Official"},
	{NBAUnofficial, "NBA Unofficial"},
	{PartnerHelpful, "MLB Partner Feedback (Helpful)"},
	{PartnerUnhelpful, "MLB Partner Feedback (Unhelpful)"},
	{UserFeedback, "MLB User Feedback"},
	{UserUnhelpful, "MLB User Feedback (Unhelpful)"},
}

var allowed = func() map[Container]struct{} {
	m := make(map[Container]struct{}, len(All))
	for _, info := range All {
		m[info.Value] = struct{}{}
	}
	return m
}()

// transferTargets pairs each unofficial source with its official
// destination. Official containers are not transfer sources.
var transferTargets = map[Container]Container{
	MLBUnofficial:    MLBOfficial,
	NBAUnofficial:    NBAOfficial,
	PartnerHelpful:   MLBOfficial,
	PartnerUnhelpful: MLBOfficial,
	UserFeedback:     MLBOfficial,
	UserUnhelpful:    MLBOfficial,
}

// Parse validates a container name from an untrusted source.
func Parse(name string) (Container, error) {
	c := Container(name)
	if _, ok := allowed[c]; !ok {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidContainer, name)
	}
	return c, nil
}

// IsOfficial reports whether c holds curated official documents.
func IsOfficial(c Container) bool {
	return c == MLBOfficial || c == NBAOfficial
}

// TransferTarget returns the paired official destination for an unofficial
// source container.
func TransferTarget(source Container) (Container, bool) {
	dst, ok := transferTargets[source]
	return dst, ok
}

// ValidateTransferPair checks that source and target form an allowed
// transfer. Callers may name the target explicitly, but it must match the
// pairing table.
func ValidateTransferPair(source, target Container) error {
	expected, ok := transferTargets[source]
	if !ok {
		return fmt.Errorf("%w: %q is not a transfer source", apperrors.ErrInvalidContainer, source)
	}
	if target != expected {
		return fmt.Errorf("%w: %q transfers to %q, not %q", apperrors.ErrInvalidContainer, source, expected, target)
	}
	return nil
}
