package types

// Criticality ranks how essential a skill is for the benchmark role
type Criticality string

const (
	CriticalityMustHave   Criticality = "must-have"
	CriticalityNiceToHave Criticality = "nice-to-have"
	CriticalityBonus      Criticality = "bonus"
)

// ExperienceRange represents the years of experience expected for a role
type ExperienceRange struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Median    float64 `json:"median"`
	Rationale string  `json:"rationale"`
}

// SkillRequirement represents one core skill of the benchmark candidate
type SkillRequirement struct {
	Name        string      `json:"name"`
	Criticality Criticality `json:"criticality"`
	Rationale   string      `json:"rationale"`
}

// BenchmarkCandidate is the synthesized ideal-candidate profile for a role.
// Values are treated as immutable once returned by the remote service.
type BenchmarkCandidate struct {
	RoleTitle          string             `json:"roleTitle"`
	Level              string             `json:"level"`
	ExperienceRange    ExperienceRange    `json:"experienceRange"`
	CoreSkills         []SkillRequirement `json:"coreSkills"`
	TypicalMetrics     []string           `json:"typicalMetrics"`
	SynthesisRationale string             `json:"synthesisRationale"`
}

// HasSkills reports whether the benchmark carries a usable skills list
func (b *BenchmarkCandidate) HasSkills() bool {
	return b != nil && len(b.CoreSkills) > 0
}

// Category weights applied to the overall match score
const (
	WeightKeywords        = 0.40
	WeightExperience      = 0.25
	WeightAccomplishments = 0.20
	WeightATSCompliance   = 0.15
)

// CategoryScore represents one weighted sub-score of a match breakdown
type CategoryScore struct {
	Score   int      `json:"score"`   // 0-100 score
	Weight  float64  `json:"weight"`  // Fraction of the overall score
	Matched []string `json:"matched"` // Keywords found in the resume
	Missing []string `json:"missing"` // Keywords absent from the resume
}

// ScoreCategories groups the four weighted sub-scores
type ScoreCategories struct {
	Keywords        CategoryScore `json:"keywords"`
	Experience      CategoryScore `json:"experience"`
	Accomplishments CategoryScore `json:"accomplishments"`
	ATSCompliance   CategoryScore `json:"atsCompliance"`
}

// NamedCategory pairs a category label with its score for display
type NamedCategory struct {
	Name  string
	Score CategoryScore
}

// Ordered returns the categories in display order
func (c ScoreCategories) Ordered() []NamedCategory {
	return []NamedCategory{
		{Name: "Keywords", Score: c.Keywords},
		{Name: "Experience", Score: c.Experience},
		{Name: "Accomplishments", Score: c.Accomplishments},
		{Name: "ATS Compliance", Score: c.ATSCompliance},
	}
}

// MatchScoreBreakdown represents a resume's fit against a benchmark
type MatchScoreBreakdown struct {
	OverallScore int             `json:"overallScore"` // 0-100 score
	Categories   ScoreCategories `json:"categories"`
	Strengths    []string        `json:"strengths"`
	Explanation  string          `json:"explanation"`
}

// GapType classifies what a gap is about
type GapType string

const (
	GapTypeKeyword        GapType = "keyword"
	GapTypeAccomplishment GapType = "accomplishment"
	GapTypeExperience     GapType = "experience"
	GapTypeFormat         GapType = "format"
)

// Severity ranks how much a gap hurts the match
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ActionType is the remediation verb attached to a gap
type ActionType string

const (
	ActionAdd          ActionType = "add"
	ActionStrengthen   ActionType = "strengthen"
	ActionReorganize   ActionType = "reorganize"
	ActionRemove       ActionType = "remove"
	ActionAddNewBullet ActionType = "add-new-bullet"
)

// GapAction represents one deficiency and its suggested remediation
type GapAction struct {
	ID               string     `json:"id"`
	Type             GapType    `json:"type"`
	Severity         Severity   `json:"severity"`
	Issue            string     `json:"issue"`
	Impact           string     `json:"impact"`
	Action           string     `json:"action"`
	ActionType       ActionType `json:"actionType"`
	SuggestedKeyword string     `json:"suggestedKeyword,omitempty"`
	SuggestedText    string     `json:"suggestedText,omitempty"`
}

// GapChecklist is the ordered list of gaps for the current score
type GapChecklist struct {
	Gaps    []GapAction `json:"gaps"`
	Summary string      `json:"summary,omitempty"`
}

// Find returns the gap with the given id
func (c *GapChecklist) Find(id string) (GapAction, bool) {
	if c == nil {
		return GapAction{}, false
	}
	for _, gap := range c.Gaps {
		if gap.ID == id {
			return gap, true
		}
	}
	return GapAction{}, false
}

// Metrics carries the optional usage metrics a remote endpoint reports
type Metrics map[string]any
