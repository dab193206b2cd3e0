package types

import (
	stderrors "errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"resumetailor/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Minimum input lengths, counted in characters of the trimmed text
const (
	MinJobDescriptionLength = 50
	MinResumeLength         = 100
)

// User-facing validation messages
const (
	MsgJobDescriptionTooShort = "Job description must be at least 50 characters"
	MsgResumeTooShort         = "Resume text must be at least 100 characters"
	MsgBenchmarkRequired      = "A benchmark candidate with skills is required"
	MsgScoreRequired          = "Score breakdown and benchmark are required"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// textmin counts runes after trimming surrounding whitespace
	_ = v.RegisterValidation("textmin", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
	})
	return v
}

// BenchmarkRequest is the body sent to the benchmark synthesis endpoint
type BenchmarkRequest struct {
	JobDescription string `json:"jobDescription" validate:"textmin=50"`
	JobTitle       string `json:"jobTitle,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	Industry       string `json:"industry,omitempty"`
}

// Validate checks the request before any network call is made
func (r *BenchmarkRequest) Validate() error {
	return translate(validate.Struct(r))
}

// ScoreRequest is the body sent to the scoring endpoint
type ScoreRequest struct {
	ResumeText string              `json:"resumeText" validate:"textmin=100"`
	Benchmark  *BenchmarkCandidate `json:"benchmark" validate:"required"`
}

// Validate checks the request before any network call is made
func (r *ScoreRequest) Validate() error {
	if err := translate(validate.Struct(r)); err != nil {
		return err
	}
	if !r.Benchmark.HasSkills() {
		return errors.NewValidationError(errors.ErrCodeMissingBenchmark, MsgBenchmarkRequired, nil)
	}
	return nil
}

// GapChecklistRequest is the body sent to the gap-checklist endpoint
type GapChecklistRequest struct {
	ScoreBreakdown *MatchScoreBreakdown `json:"scoreBreakdown" validate:"required"`
	Benchmark      *BenchmarkCandidate  `json:"benchmark" validate:"required"`
	ResumeText     string               `json:"resumeText,omitempty"`
}

// Validate checks the request before any network call is made
func (r *GapChecklistRequest) Validate() error {
	return translate(validate.Struct(r))
}

// translate maps validator failures onto the application's validation errors
func translate(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid request", err)
	}

	fe := fieldErrs[0]
	switch fe.StructField() {
	case "JobDescription":
		return errors.NewValidationError(errors.ErrCodeJobDescriptionTooShort, MsgJobDescriptionTooShort, nil).
			WithContext("min_length", MinJobDescriptionLength)
	case "ResumeText":
		return errors.NewValidationError(errors.ErrCodeResumeTooShort, MsgResumeTooShort, nil).
			WithContext("min_length", MinResumeLength)
	case "ScoreBreakdown":
		return errors.NewValidationError(errors.ErrCodeMissingScore, MsgScoreRequired, nil)
	case "Benchmark":
		if fe.StructNamespace() == "GapChecklistRequest.Benchmark" {
			return errors.NewValidationError(errors.ErrCodeMissingScore, MsgScoreRequired, nil)
		}
		return errors.NewValidationError(errors.ErrCodeMissingBenchmark, MsgBenchmarkRequired, nil)
	default:
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid request", err)
	}
}
