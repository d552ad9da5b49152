// Package experience extracts years-of-experience facts: the requirement a job
// description states and the total tenure a resume documents.
package experience

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/ats-scorer/internal/textnorm"
)

// Claim is one experience statement found in a job description.
type Claim struct {
	Min     int
	Max     *int
	IsRange bool
	IsPlus  bool
}

// Label renders the claim as "a-b", "a+" or "a".
func (c Claim) Label() string {
	switch {
	case c.IsRange && c.Max != nil:
		return strconv.Itoa(c.Min) + "-" + strconv.Itoa(*c.Max)
	case c.IsPlus:
		return strconv.Itoa(c.Min) + "+"
	default:
		return strconv.Itoa(c.Min)
	}
}

// Result is the experience requirement of a job description.
type Result struct {
	MinYOE   Value    `json:"min_yoe"`
	MaxYOE   Value    `json:"max_yoe"`
	IsRange  bool     `json:"is_range"`
	IsPlus   bool     `json:"is_plus"`
	Found    bool     `json:"found"`
	AllFound []string `json:"all_found"`
}

// NotFoundResult is returned when a job description states no experience requirement.
func NotFoundResult() Result {
	return Result{MinYOE: NotFound, MaxYOE: NotFound, AllFound: []string{}}
}

// Pattern is one family of experience phrasing.
type Pattern interface {
	Name() string
	Claims(text string) []Claim
}

// JDPatterns is the ordered list of phrasing families searched in job descriptions.
// Order matters: on equal minimums the earliest claim wins.
var JDPatterns = []Pattern{
	flexiblePattern{},
	floorPattern{},
	rangePattern{},
	wordNumberPattern{},
	qualifierPattern{},
}

var wordNumbers = map[string]int{
	"two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

const wordNumberAlt = `two|three|four|five|six|seven|eight|nine|ten`

var (
	flexibleRe   = regexp.MustCompile(`(\d+)\+?\s*(?:to|\-|–|or)?\s*(\d+)?\s*years?\s*(?:of|in|with|managing|working|programming)?`)
	floorRe      = regexp.MustCompile(`(?:minimum|minimum\s+of|at\s+least|atleast)\s+(\d+|` + wordNumberAlt + `)\s*(?:\+)?\s*years?`)
	rangeRe      = regexp.MustCompile(`(\d+)\s*(?:\-|–|to)\s*(\d+)\s*years?`)
	wordNumberRe = regexp.MustCompile(`\b(` + wordNumberAlt + `)\s+years?`)
	qualifierRe  = regexp.MustCompile(`(\d+)\s*years?\s*\((?:required|preferred)\)`)
)

// flexiblePattern matches "5+ years", "3-5 years of", "2 or 3 years with".
type flexiblePattern struct{}

func (flexiblePattern) Name() string { return "flexible" }

func (flexiblePattern) Claims(text string) []Claim {
	var claims []Claim
	for _, m := range flexibleRe.FindAllStringSubmatch(text, -1) {
		lo, ok := atoi(m[1])
		if !ok {
			continue
		}
		claim := Claim{Min: lo, IsPlus: strings.Contains(m[0], "+")}
		if hi, ok := atoi(m[2]); ok {
			claim.Max = &hi
			claim.IsRange = true
		}
		claims = append(claims, normalize(claim))
	}
	return claims
}

// floorPattern matches "minimum of 5 years", "at least three years".
type floorPattern struct{}

func (floorPattern) Name() string { return "floor" }

func (floorPattern) Claims(text string) []Claim {
	var claims []Claim
	for _, m := range floorRe.FindAllStringSubmatch(text, -1) {
		years, ok := wordNumbers[m[1]]
		if !ok {
			years, _ = atoi(m[1])
		}
		if years > 0 {
			claims = append(claims, Claim{Min: years})
		}
	}
	return claims
}

// rangePattern matches "3-5 years", "3 to 5 years".
type rangePattern struct{}

func (rangePattern) Name() string { return "range" }

func (rangePattern) Claims(text string) []Claim {
	var claims []Claim
	for _, m := range rangeRe.FindAllStringSubmatch(text, -1) {
		lo, ok1 := atoi(m[1])
		hi, ok2 := atoi(m[2])
		if !ok1 || !ok2 {
			continue
		}
		claims = append(claims, normalize(Claim{Min: lo, Max: &hi, IsRange: true}))
	}
	return claims
}

// wordNumberPattern matches "two years", "five years".
type wordNumberPattern struct{}

func (wordNumberPattern) Name() string { return "word_number" }

func (wordNumberPattern) Claims(text string) []Claim {
	var claims []Claim
	for _, m := range wordNumberRe.FindAllStringSubmatch(text, -1) {
		claims = append(claims, Claim{Min: wordNumbers[m[1]]})
	}
	return claims
}

// qualifierPattern matches "3 years (required)", "2 years (preferred)".
type qualifierPattern struct{}

func (qualifierPattern) Name() string { return "qualifier" }

func (qualifierPattern) Claims(text string) []Claim {
	var claims []Claim
	for _, m := range qualifierRe.FindAllStringSubmatch(text, -1) {
		if years, ok := atoi(m[1]); ok {
			claims = append(claims, Claim{Min: years})
		}
	}
	return claims
}

// MostDemanding returns the claim with the highest minimum. The first claim wins ties.
func MostDemanding(claims []Claim) (Claim, bool) {
	if len(claims) == 0 {
		return Claim{}, false
	}
	best := claims[0]
	for _, c := range claims[1:] {
		if c.Min > best.Min {
			best = c
		}
	}
	return best, true
}

// Collect runs every pattern over text in order and returns all claims.
func Collect(text string, patterns []Pattern) []Claim {
	var claims []Claim
	for _, p := range patterns {
		claims = append(claims, p.Claims(text)...)
	}
	return claims
}

// ExtractFromJD returns the experience requirement stated anywhere in a job description.
func ExtractFromJD(text string) Result {
	return extract(textnorm.Unescape(text))
}

// ExtractFromJDSection is like ExtractFromJD but restricts the search to the
// requirements section when one can be located.
func ExtractFromJDSection(text string, minSectionLen int) Result {
	unescaped := textnorm.Unescape(text)
	if section, ok := textnorm.RequirementsSection(unescaped, minSectionLen); ok {
		return extract(section)
	}
	return extract(unescaped)
}

func extract(text string) Result {
	if textnorm.IsBlank(text) {
		return NotFoundResult()
	}

	claims := Collect(strings.ToLower(text), JDPatterns)
	best, ok := MostDemanding(claims)
	if !ok {
		return NotFoundResult()
	}

	all := make([]string, 0, len(claims))
	for _, c := range claims {
		all = append(all, c.Label())
	}

	res := Result{
		MinYOE:   Years(float64(best.Min)),
		MaxYOE:   NotFound,
		IsRange:  best.IsRange,
		IsPlus:   best.IsPlus,
		Found:    true,
		AllFound: all,
	}
	// A zero maximum is treated as absent.
	if best.Max != nil && *best.Max != 0 {
		res.MaxYOE = Years(float64(*best.Max))
	}
	return res
}

// normalize swaps a range written high-to-low so that Min never exceeds Max.
func normalize(c Claim) Claim {
	if c.Max != nil && *c.Max < c.Min {
		lo := *c.Max
		hi := c.Min
		c.Min = lo
		c.Max = &hi
	}
	return c
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
