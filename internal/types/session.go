package types

// Phase is the loading phase of a tailoring session
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseAnalyzing      Phase = "analyzing"
	PhaseScoring        Phase = "scoring"
	PhaseGeneratingGaps Phase = "generating-gaps"
)

// SessionState is the observable record of a tailoring session
type SessionState struct {
	Resume         string               `json:"resume"`
	JobDescription string               `json:"jobDescription"`
	Benchmark      *BenchmarkCandidate  `json:"benchmark"`
	ScoreBreakdown *MatchScoreBreakdown `json:"scoreBreakdown"`
	GapChecklist   *GapChecklist        `json:"gapChecklist"`
	Loading        Phase                `json:"loading"`
	Error          string               `json:"error,omitempty"`
}

// NewSessionState returns the initial empty state
func NewSessionState() SessionState {
	return SessionState{Loading: PhaseIdle}
}

// Busy reports whether a remote call is in flight
func (s SessionState) Busy() bool {
	return s.Loading != PhaseIdle
}

// ExportResult describes where an exported resume was written
type ExportResult struct {
	Filename string `json:"filename"`
	Location string `json:"location"`
	Bytes    int    `json:"bytes"`
}

// Clone returns a deep copy so snapshots can be handed out without sharing slices
func (s SessionState) Clone() SessionState {
	out := s
	if s.Benchmark != nil {
		b := *s.Benchmark
		b.CoreSkills = cloneSlice(s.Benchmark.CoreSkills)
		b.TypicalMetrics = cloneSlice(s.Benchmark.TypicalMetrics)
		out.Benchmark = &b
	}
	if s.ScoreBreakdown != nil {
		sb := *s.ScoreBreakdown
		sb.Categories.Keywords = s.ScoreBreakdown.Categories.Keywords.clone()
		sb.Categories.Experience = s.ScoreBreakdown.Categories.Experience.clone()
		sb.Categories.Accomplishments = s.ScoreBreakdown.Categories.Accomplishments.clone()
		sb.Categories.ATSCompliance = s.ScoreBreakdown.Categories.ATSCompliance.clone()
		sb.Strengths = cloneSlice(s.ScoreBreakdown.Strengths)
		out.ScoreBreakdown = &sb
	}
	if s.GapChecklist != nil {
		gc := *s.GapChecklist
		gc.Gaps = cloneSlice(s.GapChecklist.Gaps)
		out.GapChecklist = &gc
	}
	return out
}

func (c CategoryScore) clone() CategoryScore {
	c.Matched = cloneSlice(c.Matched)
	c.Missing = cloneSlice(c.Missing)
	return c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
