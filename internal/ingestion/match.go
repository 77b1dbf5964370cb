package ingestion

import (
	"context"
	"math"

	"github.com/jonathan/hiretree/internal/skills"
	"github.com/jonathan/hiretree/internal/types"
)

// MatchResult is a job's compatibility with a resume.
type MatchResult struct {
	Score   *int
	Matched []string
	Missing []string
}

// MatchScorer computes how well a resume covers a job.
type MatchScorer interface {
	ScoreJob(ctx context.Context, job types.Job, resume types.Resume) (MatchResult, error)
}

var recencyWeight = map[string]float64{
	types.RecencyCurrent: 1.0,
	types.RecencyRecent:  0.8,
	types.RecencyOld:     0.5,
}

// OverlapScorer scores the share of a job's stack found on the resume,
// weighting each hit by its effective rating and recency. Jobs without a
// stack stay unscored.
type OverlapScorer struct{}

// ScoreJob implements MatchScorer.
func (OverlapScorer) ScoreJob(_ context.Context, job types.Job, resume types.Resume) (MatchResult, error) {
	stack := skills.NormalizeStack(job.Stack)
	have, lack := skills.Overlap(stack, resume)
	res := MatchResult{Matched: orEmpty(have), Missing: orEmpty(lack)}
	if len(stack) == 0 {
		return res, nil
	}

	var total float64
	for _, name := range have {
		for _, s := range resume.Skills {
			if !skills.Equal(s.Name, name) {
				continue
			}
			w, ok := recencyWeight[s.Recency]
			if !ok {
				w = 0.7
			}
			total += w * float64(skills.EffectiveRating(s)) / skills.MaxStars
			break
		}
	}
	score := int(math.Round(100 * total / float64(len(stack))))
	res.Score = &score
	return res, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
