package experience

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/ats-scorer/internal/textnorm"
)

// DefaultMaxYears is the ceiling above which a computed resume total is discarded as implausible.
const DefaultMaxYears = 50

// maxOpenSpanMonths bounds a single year-only open span.
const maxOpenSpanMonths = 600

var (
	sectionStarts = []string{"EXPERIENCE", "WORK EXPERIENCE", "EMPLOYMENT HISTORY"}
	sectionEnds   = []string{"EDUCATION", "PROJECTS", "SKILLS", "TECHNICAL SKILLS"}
)

const (
	monthAlt   = `Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?`
	separator  = `\s*(?:to|–|-|till)\s*`
	ongoingAlt = `(?:Present|Current|Till Date|Now|Today)`
)

var (
	closedMonthRe = regexp.MustCompile(`(?i)(` + monthAlt + `)\s+(\d{4})` + separator + `(` + monthAlt + `)\s+(\d{4})`)
	openMonthRe   = regexp.MustCompile(`(?i)(` + monthAlt + `)\s+(\d{4})` + separator + ongoingAlt)
	openYearRe    = regexp.MustCompile(`(?i)\b(\d{4})` + separator + ongoingAlt)
)

var months = map[string]int{
	"jan": 1, "january": 1, "feb": 2, "february": 2, "mar": 3, "march": 3,
	"apr": 4, "april": 4, "may": 5, "jun": 6, "june": 6,
	"jul": 7, "july": 7, "aug": 8, "august": 8, "sep": 9, "september": 9,
	"oct": 10, "october": 10, "nov": 11, "november": 11, "dec": 12, "december": 12,
}

// TotalExperience sums the employment spans listed in the experience section of
// a resume and returns the total in years, rounded to one decimal. Open-ended
// spans are resolved against now. A total above maxYears is treated as a
// parsing accident and reported as 0.
func TotalExperience(text string, now time.Time, maxYears float64) float64 {
	if maxYears <= 0 {
		maxYears = DefaultMaxYears
	}

	section, ok := textnorm.Between(text, sectionStarts, sectionEnds, 10)
	if !ok {
		return 0
	}

	var counted [][]int
	total := 0

	for _, loc := range closedMonthRe.FindAllStringSubmatchIndex(section, -1) {
		startMonth := monthNumber(section[loc[2]:loc[3]], 1)
		startYear, _ := strconv.Atoi(section[loc[4]:loc[5]])
		endMonth := monthNumber(section[loc[6]:loc[7]], 12)
		endYear, _ := strconv.Atoi(section[loc[8]:loc[9]])

		if span := (endYear-startYear)*12 + (endMonth - startMonth); span > 0 {
			total += span
			counted = append(counted, loc[:2])
		}
	}

	currentYear, currentMonth := now.Year(), int(now.Month())

	for _, loc := range openMonthRe.FindAllStringSubmatchIndex(section, -1) {
		startMonth := monthNumber(section[loc[2]:loc[3]], 1)
		startYear, _ := strconv.Atoi(section[loc[4]:loc[5]])

		if span := (currentYear-startYear)*12 + (currentMonth - startMonth); span > 0 {
			total += span
			counted = append(counted, loc[:2])
		}
	}

	for _, loc := range openYearRe.FindAllStringSubmatchIndex(section, -1) {
		if within(loc[0], loc[1], counted) {
			continue
		}
		startYear, _ := strconv.Atoi(section[loc[2]:loc[3]])
		if span := (currentYear-startYear)*12 + currentMonth; span > 0 && span <= maxOpenSpanMonths {
			total += span
		}
	}

	if total <= 0 {
		return 0
	}

	years := math.Round(float64(total)/12*10) / 10
	if years > maxYears {
		return 0
	}
	return years
}

func monthNumber(name string, fallback int) int {
	if m, ok := months[strings.ToLower(name)]; ok {
		return m
	}
	return fallback
}

func within(start, end int, spans [][]int) bool {
	for _, s := range spans {
		if start >= s[0] && end <= s[1] {
			return true
		}
	}
	return false
}
