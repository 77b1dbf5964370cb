package skills

import (
	"strconv"

	"github.com/jonathan/hiretree/internal/status"
	"github.com/jonathan/hiretree/internal/types"
)

// Band classifies a match score for display.
type Band string

// Score bands.
const (
	BandUnscored Band = "unscored"
	BandStrong   Band = "strong"
	BandFair     Band = "fair"
	BandWeak     Band = "weak"
)

// ScoreBand returns the display band of a match score.
func ScoreBand(score *int) Band {
	switch {
	case score == nil:
		return BandUnscored
	case *score >= 75:
		return BandStrong
	case *score >= 50:
		return BandFair
	default:
		return BandWeak
	}
}

// Match is the presentation of a job's external match result.
type Match struct {
	Score      *int
	Band       Band
	Matched    []string
	Missing    []string
	AllMatched bool
}

// Label renders the score as a percentage, or a dash when unscored.
func (m Match) Label() string {
	if m.Score == nil {
		return "—"
	}
	return strconv.Itoa(*m.Score) + "%"
}

// Describe builds the match presentation of a job.
func Describe(j types.Job) Match {
	j = j.Clone()
	return Match{
		Score:      j.MatchScore,
		Band:       ScoreBand(j.MatchScore),
		Matched:    j.Matched,
		Missing:    j.Missing,
		AllMatched: j.MatchScore != nil && len(j.Stack) > 0 && len(j.Missing) == 0,
	}
}

// Overlap splits a job's stack into the skills the resume lists and those it
// lacks. It is a display aid for unscored jobs, not a score.
func Overlap(stack []string, resume types.Resume) (have, lack []string) {
	for _, tech := range NormalizeStack(stack) {
		found := false
		for _, s := range resume.Skills {
			if Equal(s.Name, tech) {
				found = true
				break
			}
		}
		if found {
			have = append(have, tech)
		} else {
			lack = append(lack, tech)
		}
	}
	return have, lack
}

// PipelineCounts counts jobs per status.
func PipelineCounts(jobs []types.Job) map[status.Status]int {
	counts := make(map[status.Status]int, len(status.All()))
	for _, st := range status.All() {
		counts[st] = 0
	}
	for _, j := range jobs {
		if j.Status.Valid() {
			counts[j.Status]++
		}
	}
	return counts
}
