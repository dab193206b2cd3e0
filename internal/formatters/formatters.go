package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumetailor/internal/types"
)

const sessionStateType = "SessionState"

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", sessionStateType, &SessionTextFormatter{})
	registry.RegisterFormatter("markdown", sessionStateType, &SessionMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.SessionState, *types.SessionState:
		return sessionStateType
	default:
		return "any"
	}
}

func asSessionState(data any) (types.SessionState, error) {
	switch v := data.(type) {
	case types.SessionState:
		return v, nil
	case *types.SessionState:
		if v != nil {
			return *v, nil
		}
	}
	return types.SessionState{}, fmt.Errorf("expected SessionState, got %T", data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// SessionTextFormatter renders a session as plain text
type SessionTextFormatter struct{}

func (f *SessionTextFormatter) Format(data any) (string, error) {
	state, err := asSessionState(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	if state.Error != "" {
		fmt.Fprintf(&output, "ERROR: %s\n\n", state.Error)
	}

	if b := state.Benchmark; b != nil {
		output.WriteString("=== BENCHMARK CANDIDATE ===\n")
		fmt.Fprintf(&output, "Role: %s (%s)\n", b.RoleTitle, b.Level)
		fmt.Fprintf(&output, "Experience: %.0f-%.0f years (median %.1f)\n", b.ExperienceRange.Min, b.ExperienceRange.Max, b.ExperienceRange.Median)
		if len(b.CoreSkills) > 0 {
			output.WriteString("Core skills:\n")
			for _, skill := range b.CoreSkills {
				fmt.Fprintf(&output, "  - %s [%s]\n", skill.Name, skill.Criticality)
			}
		}
		output.WriteString("\n")
	}

	if s := state.ScoreBreakdown; s != nil {
		output.WriteString("=== MATCH SCORE ===\n")
		fmt.Fprintf(&output, "Overall: %d/100\n", s.OverallScore)
		for _, c := range s.Categories.Ordered() {
			fmt.Fprintf(&output, "  %-16s %3d/100 (weight %.0f%%)\n", c.Name+":", c.Score.Score, c.Score.Weight*100)
			if len(c.Score.Missing) > 0 {
				fmt.Fprintf(&output, "    missing: %s\n", strings.Join(c.Score.Missing, ", "))
			}
		}
		if s.Explanation != "" {
			output.WriteString("\n")
			output.WriteString(s.Explanation)
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	if g := state.GapChecklist; g != nil {
		output.WriteString("=== GAP CHECKLIST ===\n")
		for _, gap := range g.Gaps {
			fmt.Fprintf(&output, "[%s] %s (%s, %s)\n", gap.ID, gap.Action, gap.ActionType, gap.Severity)
			if gap.Issue != "" {
				fmt.Fprintf(&output, "    issue: %s\n", gap.Issue)
			}
		}
		output.WriteString("\n")
	}

	output.WriteString("=== RESUME ===\n")
	output.WriteString(state.Resume)
	output.WriteString("\n")

	return output.String(), nil
}

func (f *SessionTextFormatter) SupportedType() string {
	return sessionStateType
}

// SessionMarkdownFormatter renders a session as markdown
type SessionMarkdownFormatter struct{}

func (f *SessionMarkdownFormatter) Format(data any) (string, error) {
	state, err := asSessionState(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Resume Tailoring Report\n\n")
	if state.Error != "" {
		fmt.Fprintf(&output, "> **Error:** %s\n\n", state.Error)
	}

	if b := state.Benchmark; b != nil {
		fmt.Fprintf(&output, "## Benchmark: %s\n\n", b.RoleTitle)
		fmt.Fprintf(&output, "**Level:** %s  \n", b.Level)
		fmt.Fprintf(&output, "**Experience:** %.0f-%.0f years\n\n", b.ExperienceRange.Min, b.ExperienceRange.Max)
		if len(b.CoreSkills) > 0 {
			output.WriteString("| Skill | Criticality |\n|---|---|\n")
			for _, skill := range b.CoreSkills {
				fmt.Fprintf(&output, "| %s | %s |\n", skill.Name, skill.Criticality)
			}
			output.WriteString("\n")
		}
	}

	if s := state.ScoreBreakdown; s != nil {
		output.WriteString("## Match Score\n\n")
		fmt.Fprintf(&output, "**Overall:** %d/100\n\n", s.OverallScore)
		output.WriteString("| Category | Score | Weight |\n|---|---|---|\n")
		for _, c := range s.Categories.Ordered() {
			fmt.Fprintf(&output, "| %s | %d | %.0f%% |\n", c.Name, c.Score.Score, c.Score.Weight*100)
		}
		output.WriteString("\n")
		if len(s.Strengths) > 0 {
			output.WriteString("### Strengths\n")
			for _, strength := range s.Strengths {
				fmt.Fprintf(&output, "- %s\n", strength)
			}
			output.WriteString("\n")
		}
	}

	if g := state.GapChecklist; g != nil && len(g.Gaps) > 0 {
		output.WriteString("## Gap Checklist\n\n")
		for _, gap := range g.Gaps {
			fmt.Fprintf(&output, "- [ ] **%s** `%s` (%s severity): %s\n", gap.ActionType, gap.ID, gap.Severity, gap.Action)
		}
		output.WriteString("\n")
	}

	output.WriteString("## Resume\n\n```\n")
	output.WriteString(state.Resume)
	output.WriteString("\n```\n")

	return output.String(), nil
}

func (f *SessionMarkdownFormatter) SupportedType() string {
	return sessionStateType
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
