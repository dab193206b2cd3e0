package common

import (
	"fmt"
	"slices"
	"strings"

	"resumetailor/internal/errors"
	"resumetailor/internal/formatters"
)

// OutputFormats returns the configured formats that a registered formatter can
// render, in configured order. With nothing configured every registered format
// is offered.
func OutputFormats(configured []string) []string {
	available := formatters.GlobalRegistry.GetSupportedFormats()
	if len(configured) == 0 {
		slices.Sort(available)
		return available
	}

	formats := make([]string, 0, len(configured))
	for _, format := range configured {
		if slices.Contains(available, format) && !slices.Contains(formats, format) {
			formats = append(formats, format)
		}
	}
	return formats
}

// ValidateOutputFormat accepts format only if it is configured and renderable
func ValidateOutputFormat(format string, configured []string) error {
	formats := OutputFormats(configured)
	if slices.Contains(formats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("Unsupported output format '%s'. Supported formats: %s", format, strings.Join(formats, ", ")), nil).
		WithContext("format", format)
}
