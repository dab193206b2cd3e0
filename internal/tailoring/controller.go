// Package tailoring runs resume-tailoring sessions: benchmark synthesis, scoring
// and gap-checklist generation against a job description, with debounced
// re-scoring while the resume is edited.
package tailoring

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"resumetailor/internal/errors"
	"resumetailor/internal/events"
	"resumetailor/internal/export"
	"resumetailor/internal/types"
)

// DefaultDebounceDelay is the quiet period after the last edit before re-scoring
const DefaultDebounceDelay = 2000 * time.Millisecond

// JobContext carries optional hints for benchmark synthesis
type JobContext struct {
	JobTitle    string `json:"jobTitle,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Industry    string `json:"industry,omitempty"`
}

// Options configures a Controller
type Options struct {
	SessionID     string
	Analyzer      Analyzer
	Exporter      export.Exporter
	Publisher     events.Publisher
	Clock         Clock
	DebounceDelay time.Duration
	Logger        *errors.Logger

	// BaseContext is used by debounced re-scores, which have no caller context.
	BaseContext context.Context
}

// textCell holds the latest resume text; the debounced re-score reads it when it fires
type textCell struct {
	v atomic.Pointer[string]
}

func (c *textCell) Set(s string) { c.v.Store(&s) }

func (c *textCell) Get() string {
	if p := c.v.Load(); p != nil {
		return *p
	}
	return ""
}

// Controller owns one tailoring session
type Controller struct {
	id        string
	benchmark *BenchmarkRequester
	score     *ScoreRequester
	gaps      *GapRequester
	exporter  export.Exporter
	publisher events.Publisher
	clock     Clock
	scheduler *Scheduler
	debounce  time.Duration
	logger    *errors.Logger
	baseCtx   context.Context

	// workflow serializes remote workflows so one call is in flight at a time
	workflow sync.Mutex

	mu         sync.Mutex
	state      types.SessionState
	generation uint64
	closed     bool
	latest     textCell
}

// New creates a controller in the initial idle state
func New(opts Options) (*Controller, error) {
	if opts.Analyzer == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "tailoring session requires an analyzer", nil)
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = DefaultDebounceDelay
	}
	if opts.Logger == nil {
		opts.Logger = errors.NewNopLogger()
	}
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}

	c := &Controller{
		id:        opts.SessionID,
		benchmark: NewBenchmarkRequester(opts.Analyzer),
		score:     NewScoreRequester(opts.Analyzer),
		gaps:      NewGapRequester(opts.Analyzer),
		exporter:  opts.Exporter,
		publisher: opts.Publisher,
		clock:     opts.Clock,
		scheduler: NewScheduler(opts.Clock),
		debounce:  opts.DebounceDelay,
		logger:    opts.Logger.With("session_id", opts.SessionID),
		baseCtx:   opts.BaseContext,
		state:     types.NewSessionState(),
	}
	return c, nil
}

// ID returns the session id
func (c *Controller) ID() string {
	return c.id
}

// State returns a snapshot of the session
func (c *Controller) State() types.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// AnalyzeJob runs benchmark synthesis, scoring and gap generation in sequence.
// Earlier results are cleared first. A failing stage stops the workflow,
// records its message and keeps what the completed stages produced.
func (c *Controller) AnalyzeJob(ctx context.Context, resume, jobDescription string, job JobContext) types.SessionState {
	c.workflow.Lock()
	defer c.workflow.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.State()
	}
	c.scheduler.CancelPending()
	gen := c.generation
	c.state = types.SessionState{Resume: resume, JobDescription: jobDescription, Loading: types.PhaseAnalyzing}
	c.latest.Set(resume)
	c.mu.Unlock()

	c.benchmark.Reset()
	c.score.Reset()
	c.gaps.Reset()
	c.publish(events.Event{Type: events.TypePhaseChanged, Phase: types.PhaseAnalyzing})
	c.logger.Info("Starting job analysis", "job_length", len(jobDescription), "resume_length", len(resume))

	benchmark, err := c.benchmark.Synthesize(ctx, types.BenchmarkRequest{
		JobDescription: jobDescription,
		JobTitle:       job.JobTitle,
		CompanyName:    job.CompanyName,
		Industry:       job.Industry,
	})
	if err != nil {
		c.fail(gen, "benchmark", err)
		return c.State()
	}
	if !c.update(gen, func(s *types.SessionState) {
		s.Benchmark = benchmark
		s.Loading = types.PhaseScoring
	}) {
		return c.State()
	}

	if breakdown, ok := c.scoreAndGenerateGaps(ctx, gen, benchmark); ok {
		c.publish(events.Event{Type: events.TypeAnalysisCompleted, Phase: types.PhaseIdle, OverallScore: &breakdown.OverallScore})
		c.logger.Info("Job analysis completed", "role", benchmark.RoleTitle, "overall_score", breakdown.OverallScore)
	}
	return c.State()
}

// UpdateResume stores edited text immediately. Once a benchmark exists it also
// (re)schedules a re-score; edits inside the debounce window coalesce into one
// re-score of the final text.
func (c *Controller) UpdateResume(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Resume = text
	c.latest.Set(text)
	if c.closed || c.state.Benchmark == nil {
		return
	}
	c.scheduler.Schedule(c.debounce, func() {
		c.rescore(c.baseCtx)
	})
	c.logger.Debug("Re-score scheduled", "delay", c.debounce)
}

// ApplyGapAction edits the resume for one gap and re-scores right away.
// It returns false, changing nothing, when the gap cannot be found.
func (c *Controller) ApplyGapAction(ctx context.Context, gapID string) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if c.state.GapChecklist == nil || c.state.Benchmark == nil {
		c.mu.Unlock()
		c.logger.Warn("Cannot apply gap action without a checklist and benchmark", "gap_id", gapID)
		return false
	}
	gap, ok := c.state.GapChecklist.Find(gapID)
	if !ok {
		c.mu.Unlock()
		c.logger.Warn("Gap not found in checklist", "gap_id", gapID)
		return false
	}

	updated, changed := ApplyGap(c.state.Resume, gap)
	if changed {
		c.state.Resume = updated
		c.latest.Set(updated)
	}
	// The immediate re-score below supersedes any pending debounced one.
	c.scheduler.CancelPending()
	phase := c.state.Loading
	c.mu.Unlock()

	c.publish(events.Event{Type: events.TypeGapApplied, Phase: phase, GapID: gapID})
	c.logger.Info("Gap action applied", "gap_id", gapID, "action", gap.ActionType, "changed", changed)

	c.rescore(ctx)
	return true
}

// ExportResume writes the current resume text. Session state is not touched.
func (c *Controller) ExportResume(ctx context.Context) (types.ExportResult, error) {
	if c.exporter == nil {
		return types.ExportResult{}, errors.NewConfigError(errors.ErrCodeExportFailed, "No export destination configured", nil)
	}

	c.mu.Lock()
	resume := c.state.Resume
	role := ""
	if c.state.Benchmark != nil {
		role = c.state.Benchmark.RoleTitle
	}
	phase := c.state.Loading
	c.mu.Unlock()

	filename := ExportFilename(role, c.clock.Now())
	location, err := c.exporter.Export(ctx, filename, []byte(resume))
	if err != nil {
		c.logger.LogError(err, "Failed to export resume", "filename", filename)
		return types.ExportResult{}, err
	}

	c.publish(events.Event{Type: events.TypeExported, Phase: phase})
	return types.ExportResult{Filename: filename, Location: location, Bytes: len(resume)}, nil
}

// Reset cancels any pending re-score and returns the session to its initial state.
// Calls already in flight finish but their results are discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.scheduler.CancelPending()
	c.generation++
	c.state = types.NewSessionState()
	c.latest.Set("")
	c.mu.Unlock()

	c.benchmark.Reset()
	c.score.Reset()
	c.gaps.Reset()
	c.publish(events.Event{Type: events.TypeReset, Phase: types.PhaseIdle})
}

// Close cancels the pending re-score and discards results of calls still in
// flight; later edits never schedule another re-score
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.generation++
	c.scheduler.CancelPending()
	return nil
}

// rescore re-runs scoring and gap generation against the known benchmark
func (c *Controller) rescore(ctx context.Context) {
	c.workflow.Lock()
	defer c.workflow.Unlock()

	c.mu.Lock()
	if c.closed || c.state.Benchmark == nil {
		c.mu.Unlock()
		return
	}
	gen := c.generation
	benchmark := c.state.Benchmark
	c.mu.Unlock()

	if !c.update(gen, func(s *types.SessionState) {
		s.Loading = types.PhaseScoring
		s.Error = ""
	}) {
		return
	}

	if breakdown, ok := c.scoreAndGenerateGaps(ctx, gen, benchmark); ok {
		c.publish(events.Event{Type: events.TypeRescoreCompleted, Phase: types.PhaseIdle, OverallScore: &breakdown.OverallScore})
	}
}

// scoreAndGenerateGaps runs the second and third stages; the phase must already be scoring
func (c *Controller) scoreAndGenerateGaps(ctx context.Context, gen uint64, benchmark *types.BenchmarkCandidate) (*types.MatchScoreBreakdown, bool) {
	text := c.latest.Get()

	breakdown, err := c.score.Score(ctx, types.ScoreRequest{ResumeText: text, Benchmark: benchmark})
	if err != nil {
		c.fail(gen, "score", err)
		return nil, false
	}
	if !c.update(gen, func(s *types.SessionState) {
		s.ScoreBreakdown = breakdown
		s.Loading = types.PhaseGeneratingGaps
	}) {
		return nil, false
	}

	checklist, err := c.gaps.Generate(ctx, types.GapChecklistRequest{
		ScoreBreakdown: breakdown,
		Benchmark:      benchmark,
		ResumeText:     text,
	})
	if err != nil {
		c.fail(gen, "gaps", err)
		return nil, false
	}
	ok := c.update(gen, func(s *types.SessionState) {
		s.GapChecklist = checklist
		s.Loading = types.PhaseIdle
	})
	return breakdown, ok
}

// update applies fn if no reset happened since gen was taken, publishing phase changes
func (c *Controller) update(gen uint64, fn func(s *types.SessionState)) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("Discarding result of a superseded session generation")
		return false
	}
	before := c.state.Loading
	fn(&c.state)
	after := c.state.Loading
	c.mu.Unlock()

	if before != after {
		c.publish(events.Event{Type: events.TypePhaseChanged, Phase: after})
	}
	return true
}

func (c *Controller) fail(gen uint64, stage string, err error) {
	message := errors.UserMessage(err)
	c.logger.LogError(err, "Tailoring stage failed", "stage", stage)
	if c.update(gen, func(s *types.SessionState) {
		s.Error = message
		s.Loading = types.PhaseIdle
	}) {
		c.publish(events.Event{Type: events.TypeFailed, Phase: types.PhaseIdle, Error: message})
	}
}

func (c *Controller) publish(event events.Event) {
	event.SessionID = c.id
	event.At = c.clock.Now()
	if err := c.publisher.Publish(c.baseCtx, event); err != nil {
		c.logger.Warn("Failed to publish session event", "event", event.Type, "error", err)
	}
}
