package tailoring

import (
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Senior Platform Engineer":  "senior-platform-engineer",
		"  C++ / Go Developer (L5)": "c-go-developer-l5",
		"Ingénieur Logiciel":        "ingénieur-logiciel",
		"---":                       "",
		"":                          "",
	}
	for input, expected := range tests {
		if got := Slugify(input); got != expected {
			t.Errorf("Slugify(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestExportFilename(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	now := time.Date(2025, 12, 31, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))

	if got := ExportFilename("Staff SRE", now); got != "tailored-staff-sre-2026-01-01.txt" {
		t.Errorf("Unexpected filename %q", got)
	}
	if got := ExportFilename("", now); got != "tailored-resume-2026-01-01.txt" {
		t.Errorf("Unexpected fallback filename %q", got)
	}
}
