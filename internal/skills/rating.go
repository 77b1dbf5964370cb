package skills

import (
	"fmt"
	"strings"

	"github.com/jonathan/hiretree/internal/types"
)

// MaxStars is the top of the rating scale.
const MaxStars = 5

// EffectiveRating is the user rating when set, else the AI confidence, else 3.
func EffectiveRating(s types.Skill) int {
	if s.UserRating != nil {
		return *s.UserRating
	}
	if s.AIConfidence > 0 {
		return s.AIConfidence
	}
	return types.DefaultAIConfidence
}

// Stars renders a rating as filled and empty stars.
func Stars(n int) string {
	n = max(0, min(n, MaxStars))
	return strings.Repeat("★", n) + strings.Repeat("☆", MaxStars-n)
}

// Compact renders skills as a short summary, e.g. "Go(5★,current), SQL(3★,3+ years ago)".
func Compact(skills []types.Skill) string {
	parts := make([]string, 0, len(skills))
	for _, s := range skills {
		parts = append(parts, fmt.Sprintf("%s(%d★,%s)", s.Name, EffectiveRating(s), s.Recency))
	}
	return strings.Join(parts, ", ")
}

// Tier is a recency bucket shown on the profile page.
type Tier struct {
	Recency string
	Label   string
	Skills  []types.Skill
}

var tiers = []struct {
	recency string
	label   string
}{
	{types.RecencyCurrent, "Current"},
	{types.RecencyRecent, "Recent"},
	{types.RecencyOld, "Outdated"},
}

// ByRecency groups skills into the known recency tiers, skipping empty tiers.
// Skills with an unrecognized recency are returned separately.
func ByRecency(skills []types.Skill) (grouped []Tier, other []types.Skill) {
	known := make(map[string]bool, len(tiers))
	for _, t := range tiers {
		known[t.recency] = true
		var in []types.Skill
		for _, s := range skills {
			if s.Recency == t.recency {
				in = append(in, s.Clone())
			}
		}
		if len(in) > 0 {
			grouped = append(grouped, Tier{Recency: t.recency, Label: t.label, Skills: in})
		}
	}
	for _, s := range skills {
		if !known[s.Recency] {
			other = append(other, s.Clone())
		}
	}
	return grouped, other
}
