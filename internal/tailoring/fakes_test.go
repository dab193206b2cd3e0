package tailoring

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"resumetailor/internal/types"
)

const (
	sampleResume = "Jane Doe\nPlatform Engineer\n\nExperience:\n• Built Go services handling 10k requests per second\n• Led the migration to containers\n\nSkills:\nGo\nPostgreSQL\n"
	sampleJob    = "Senior Platform Engineer to run Go services on Kubernetes at scale."
)

// padded returns prefix padded with dots to exactly n characters
func padded(prefix string, n int) string {
	if len(prefix) >= n {
		return prefix[:n]
	}
	return prefix + strings.Repeat(".", n-len(prefix))
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock fires timers synchronously from Advance
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}

// Active returns the number of timers that are neither stopped nor fired
func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeAnalyzer struct {
	mu sync.Mutex

	benchmark    *types.BenchmarkCandidate
	benchmarkErr error
	breakdown    *types.MatchScoreBreakdown
	scoreErr     error
	checklist    *types.GapChecklist
	gapsErr      error

	benchmarkCalls int
	scoreCalls     int
	gapCalls       int
	scoredTexts    []string

	// When gate is set, SynthesizeBenchmark signals started and waits for gate.
	gate    chan struct{}
	started chan struct{}
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		benchmark: &types.BenchmarkCandidate{
			RoleTitle:  "Senior Platform Engineer",
			Level:      "senior",
			CoreSkills: []types.SkillRequirement{{Name: "Kubernetes", Criticality: types.CriticalityMustHave}},
		},
		breakdown: &types.MatchScoreBreakdown{
			OverallScore: 64,
			Categories: types.ScoreCategories{
				Keywords: types.CategoryScore{Score: 55, Weight: types.WeightKeywords, Matched: []string{"Go"}, Missing: []string{"Kubernetes"}},
			},
		},
		checklist: &types.GapChecklist{Gaps: []types.GapAction{
			{ID: "gap-k8s", Type: types.GapTypeKeyword, Severity: types.SeverityHigh, Action: "Add Kubernetes", ActionType: types.ActionAdd, SuggestedKeyword: "Kubernetes"},
			{ID: "gap-metrics", Type: types.GapTypeAccomplishment, Severity: types.SeverityMedium, Action: "Quantify the migration impact", ActionType: types.ActionStrengthen},
		}},
	}
}

func (f *fakeAnalyzer) SynthesizeBenchmark(ctx context.Context, req *types.BenchmarkRequest) (*types.BenchmarkCandidate, types.Metrics, error) {
	f.mu.Lock()
	f.benchmarkCalls++
	gate, started := f.gate, f.started
	benchmark, err := f.benchmark, f.benchmarkErr
	f.mu.Unlock()

	if gate != nil {
		close(started)
		<-gate
	}
	if err != nil {
		return nil, nil, err
	}
	b := *benchmark
	return &b, nil, nil
}

func (f *fakeAnalyzer) ScoreResume(ctx context.Context, req *types.ScoreRequest) (*types.MatchScoreBreakdown, types.Metrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scoreCalls++
	f.scoredTexts = append(f.scoredTexts, req.ResumeText)
	if f.scoreErr != nil {
		return nil, nil, f.scoreErr
	}
	b := *f.breakdown
	return &b, nil, nil
}

func (f *fakeAnalyzer) GenerateGapChecklist(ctx context.Context, req *types.GapChecklistRequest) (*types.GapChecklist, types.Metrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gapCalls++
	if req.ScoreBreakdown == nil || req.Benchmark == nil {
		panic("gap checklist requested without score breakdown or benchmark")
	}
	if f.gapsErr != nil {
		return nil, nil, f.gapsErr
	}
	c := *f.checklist
	c.Gaps = append([]types.GapAction(nil), f.checklist.Gaps...)
	return &c, nil, nil
}

func (f *fakeAnalyzer) calls() (benchmark, score, gaps int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.benchmarkCalls, f.scoreCalls, f.gapCalls
}

func (f *fakeAnalyzer) lastScoredText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.scoredTexts) == 0 {
		return ""
	}
	return f.scoredTexts[len(f.scoredTexts)-1]
}
