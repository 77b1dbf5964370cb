package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiretree/internal/types"
)

func TestOverlapScorer(t *testing.T) {
	five := 5
	resume := types.Resume{Skills: []types.Skill{
		{Name: "Go", Recency: types.RecencyCurrent, UserRating: &five},
		{Name: "PostgreSQL", Recency: types.RecencyOld, AIConfidence: 4},
		{Name: "Docker", Recency: "sometime", AIConfidence: 5},
	}}

	tests := []struct {
		name        string
		stack       []string
		wantScore   *int
		wantMatched []string
		wantMissing []string
	}{
		{"perfect", []string{"golang"}, intp(100), []string{"Go"}, []string{}},
		{"half", []string{"Go", "Kafka"}, intp(50), []string{"Go"}, []string{"Kafka"}},
		{"old skill discounted", []string{"postgres"}, intp(40), []string{"PostgreSQL"}, []string{}},
		{"unknown recency", []string{"Docker"}, intp(70), []string{"Docker"}, []string{}},
		{"nothing matches", []string{"Rust"}, intp(0), []string{}, []string{"Rust"}},
		{"no stack stays unscored", nil, nil, []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OverlapScorer{}.ScoreJob(context.Background(), types.Job{Stack: tt.stack}, resume)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantMatched, got.Matched)
			assert.Equal(t, tt.wantMissing, got.Missing)
		})
	}
}

func intp(v int) *int { return &v }
