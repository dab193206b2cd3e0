package tailoring

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"resumetailor/internal/errors"
	"resumetailor/internal/types"

	"github.com/google/uuid"
)

// Analyzer is the remote analysis service the request wrappers call
type Analyzer interface {
	SynthesizeBenchmark(ctx context.Context, req *types.BenchmarkRequest) (*types.BenchmarkCandidate, types.Metrics, error)
	ScoreResume(ctx context.Context, req *types.ScoreRequest) (*types.MatchScoreBreakdown, types.Metrics, error)
	GenerateGapChecklist(ctx context.Context, req *types.GapChecklistRequest) (*types.GapChecklist, types.Metrics, error)
}

// request tracks loading, error and result for one kind of remote call
type request[Out any] struct {
	mu      sync.RWMutex
	loading bool
	err     string
	result  *Out
}

// Loading reports whether a call is in flight
func (r *request[Out]) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// Err returns the message of the last failure, empty after a success
func (r *request[Out]) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Result returns the last successful result
func (r *request[Out]) Result() *Out {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result
}

// Reset clears result and error back to the initial state
func (r *request[Out]) Reset() {
	r.mu.Lock()
	r.loading = false
	r.err = ""
	r.result = nil
	r.mu.Unlock()
}

// run validates, then calls. Validation failures never reach the network.
func (r *request[Out]) run(ctx context.Context, validate func() error, call func(context.Context) (*Out, types.Metrics, error)) (*Out, error) {
	if err := validate(); err != nil {
		r.finish(nil, err)
		return nil, err
	}

	r.mu.Lock()
	r.loading = true
	r.err = ""
	r.mu.Unlock()

	out, _, err := call(ctx)
	if err == nil && out == nil {
		err = errors.NewRemoteError(errors.ErrCodeRemoteBadResponse, "Remote service returned an empty result", nil)
	}
	if err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.NewInternalError(errors.ErrCodeUnexpected, err.Error(), err)
		}
		out = nil
	}
	r.finish(out, err)
	return out, err
}

func (r *request[Out]) finish(out *Out, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	r.result = out
	r.err = errors.UserMessage(err)
}

// BenchmarkRequester wraps benchmark synthesis
type BenchmarkRequester struct {
	request[types.BenchmarkCandidate]
	analyzer Analyzer
}

// NewBenchmarkRequester creates a benchmark request wrapper
func NewBenchmarkRequester(analyzer Analyzer) *BenchmarkRequester {
	return &BenchmarkRequester{analyzer: analyzer}
}

// Synthesize builds the benchmark candidate for a job description
func (b *BenchmarkRequester) Synthesize(ctx context.Context, req types.BenchmarkRequest) (*types.BenchmarkCandidate, error) {
	return b.run(ctx, req.Validate, func(ctx context.Context) (*types.BenchmarkCandidate, types.Metrics, error) {
		return b.analyzer.SynthesizeBenchmark(ctx, &req)
	})
}

// ScoreRequester wraps resume scoring
type ScoreRequester struct {
	request[types.MatchScoreBreakdown]
	analyzer Analyzer
}

// NewScoreRequester creates a score request wrapper
func NewScoreRequester(analyzer Analyzer) *ScoreRequester {
	return &ScoreRequester{analyzer: analyzer}
}

// Score rates resume text against a benchmark
func (s *ScoreRequester) Score(ctx context.Context, req types.ScoreRequest) (*types.MatchScoreBreakdown, error) {
	return s.run(ctx, req.Validate, func(ctx context.Context) (*types.MatchScoreBreakdown, types.Metrics, error) {
		return s.analyzer.ScoreResume(ctx, &req)
	})
}

// GapRequester wraps gap-checklist generation
type GapRequester struct {
	request[types.GapChecklist]
	analyzer Analyzer
}

// NewGapRequester creates a gap-checklist request wrapper
func NewGapRequester(analyzer Analyzer) *GapRequester {
	return &GapRequester{analyzer: analyzer}
}

// Generate derives the gap checklist. Gaps without an id get one derived from
// their content so they can be applied, including by a later run that receives
// the same checklist.
func (g *GapRequester) Generate(ctx context.Context, req types.GapChecklistRequest) (*types.GapChecklist, error) {
	return g.run(ctx, req.Validate, func(ctx context.Context) (*types.GapChecklist, types.Metrics, error) {
		checklist, metrics, err := g.analyzer.GenerateGapChecklist(ctx, &req)
		if checklist != nil {
			assignGapIDs(checklist.Gaps)
		}
		return checklist, metrics, err
	})
}

var gapNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("resumetailor.gap"))

// assignGapIDs fills missing ids with name-based UUIDs; identical gaps are told
// apart by their position
func assignGapIDs(gaps []types.GapAction) {
	seen := make(map[string]bool, len(gaps))
	for _, gap := range gaps {
		seen[gap.ID] = true
	}
	for i := range gaps {
		if gaps[i].ID != "" {
			continue
		}
		gap := gaps[i]
		name := strings.Join([]string{string(gap.Type), string(gap.ActionType), gap.Action, gap.SuggestedKeyword, gap.SuggestedText}, "\x00")
		id := uuid.NewSHA1(gapNamespace, []byte(name)).String()
		if seen[id] {
			id = uuid.NewSHA1(gapNamespace, []byte(name+"\x00"+strconv.Itoa(i))).String()
		}
		seen[id] = true
		gaps[i].ID = id
	}
}
