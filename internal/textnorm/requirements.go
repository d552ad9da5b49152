package textnorm

import "regexp"

var requirementHeaders = compileFold(
	`EDUCATION/EXPERIENCE:?`,
	`EDUCATION AND EXPERIENCE:?`,
	`YOU'LL BRING THESE QUALIFICATIONS:?`,
	`QUALIFICATIONS:?`,
	`REQUIREMENTS:?`,
	`REQUIRED QUALIFICATIONS:?`,
	`MINIMUM QUALIFICATIONS:?`,
	`BASIC QUALIFICATIONS:?`,
	`EXPERIENCE:?`,
	`SKILLS, EXPERIENCE AND REQUIREMENTS:?`,
	`WHAT YOU'LL BRING:?`,
	`REQUIRED SKILLS AND EXPERIENCE:?`,
	`MINIMUM REQUIREMENTS:?`,
	`REQUIRED SKILLS & EXPERIENCE:?`,
	`KEY RESPONSIBILITIES:?`,
)

// The two structural markers are matched with the same case folding as the
// named ones, so any blank-line header of ten or more letters ends a section.
var requirementEndMarkers = compileFold(
	`\n\n[A-Z][A-Z\s]{10,}:`,
	`\n\n\*\*[A-Z][A-Z\s]{5,}\*\*`,
	`PHYSICAL DEMANDS`,
	`PHYSICAL REQUIREMENTS`,
	`WHAT TO EXPECT`,
	`ABOUT THE JOB`,
	`WHAT WE OFFER`,
	`BENEFITS`,
	`ADDITIONAL INFORMATION`,
	`ADDITIONAL REQUIREMENTS`,
	`SUPERVISORY RESPONSIBILITIES`,
)

// RequirementsSection locates the requirements/qualifications part of a job
// description. It returns false when the full document should be used instead.
func RequirementsSection(text string, minLen int) (string, bool) {
	return LocateSection(text, requirementHeaders, requirementEndMarkers, minLen)
}

func compileFold(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return compiled
}
