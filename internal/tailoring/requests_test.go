package tailoring

import (
	"context"
	"fmt"
	"testing"

	"resumetailor/internal/errors"
	"resumetailor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkRequester(t *testing.T) {
	analyzer := newFakeAnalyzer()
	b := NewBenchmarkRequester(analyzer)

	result, err := b.Synthesize(context.Background(), types.BenchmarkRequest{JobDescription: "short"})
	assert.Nil(t, result)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Equal(t, types.MsgJobDescriptionTooShort, b.Err())
	assert.Zero(t, analyzer.benchmarkCalls)

	result, err = b.Synthesize(context.Background(), types.BenchmarkRequest{JobDescription: sampleJob})
	require.NoError(t, err)
	assert.Equal(t, "Senior Platform Engineer", result.RoleTitle)
	assert.Equal(t, result, b.Result())
	assert.Empty(t, b.Err())
	assert.False(t, b.Loading())

	b.Reset()
	assert.Nil(t, b.Result())
	assert.Empty(t, b.Err())
}

func TestScoreRequesterValidation(t *testing.T) {
	analyzer := newFakeAnalyzer()
	s := NewScoreRequester(analyzer)

	_, err := s.Score(context.Background(), types.ScoreRequest{ResumeText: padded(sampleResume, 50), Benchmark: analyzer.benchmark})
	assert.Equal(t, types.MsgResumeTooShort, errors.UserMessage(err))

	_, err = s.Score(context.Background(), types.ScoreRequest{ResumeText: sampleResume, Benchmark: &types.BenchmarkCandidate{RoleTitle: "x"}})
	assert.Equal(t, types.MsgBenchmarkRequired, errors.UserMessage(err))

	assert.Zero(t, analyzer.scoreCalls)
}

func TestScoreRequesterSurfacesRemoteMessage(t *testing.T) {
	analyzer := newFakeAnalyzer()
	analyzer.scoreErr = errors.NewRemoteError(errors.ErrCodeRemoteFailed, "Failed to score resume", nil)
	s := NewScoreRequester(analyzer)

	result, err := s.Score(context.Background(), types.ScoreRequest{ResumeText: sampleResume, Benchmark: analyzer.benchmark})
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Equal(t, "Failed to score resume", s.Err())
	assert.Equal(t, 1, analyzer.scoreCalls, "no automatic retry")
}

func TestUnexpectedErrorsAreNormalized(t *testing.T) {
	analyzer := newFakeAnalyzer()
	analyzer.scoreErr = fmt.Errorf("connection reset by peer")
	s := NewScoreRequester(analyzer)

	_, err := s.Score(context.Background(), types.ScoreRequest{ResumeText: sampleResume, Benchmark: analyzer.benchmark})
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUnexpected, appErr.Code)
	assert.Equal(t, "connection reset by peer", s.Err())
}

func TestGapRequesterRequiresInputs(t *testing.T) {
	analyzer := newFakeAnalyzer()
	g := NewGapRequester(analyzer)

	_, err := g.Generate(context.Background(), types.GapChecklistRequest{Benchmark: analyzer.benchmark})
	assert.Equal(t, types.MsgScoreRequired, errors.UserMessage(err))
	_, err = g.Generate(context.Background(), types.GapChecklistRequest{ScoreBreakdown: analyzer.breakdown})
	assert.Equal(t, types.MsgScoreRequired, errors.UserMessage(err))
	assert.Zero(t, analyzer.gapCalls)

	checklist, err := g.Generate(context.Background(), types.GapChecklistRequest{ScoreBreakdown: analyzer.breakdown, Benchmark: analyzer.benchmark})
	require.NoError(t, err)
	assert.Len(t, checklist.Gaps, 2)
}
