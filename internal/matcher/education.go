package matcher

import (
	"fmt"
	"strings"
)

// Level is a normalised education level. Higher values rank higher.
type Level int

const (
	LevelNone Level = iota
	LevelDiploma
	LevelBachelors
	LevelMasters
	LevelPhD
)

func (l Level) String() string {
	switch l {
	case LevelDiploma:
		return "Diploma"
	case LevelBachelors:
		return "Bachelors"
	case LevelMasters:
		return "Masters"
	case LevelPhD:
		return "PhD"
	default:
		return "None"
	}
}

// Checked from the highest level down; the first family with a hit wins.
var levelTerms = []struct {
	level Level
	terms []string
}{
	{LevelPhD, []string{"phd", "ph.d", "doctorate", "doctoral"}},
	{LevelMasters, []string{"master", "masters", "m.tech", "m.e.", "m.s.", "mba", "postgraduate"}},
	{LevelBachelors, []string{"bachelor", "bachelors", "b.e.", "b.tech", "b.s.", "undergraduate", "graduate"}},
	{LevelDiploma, []string{"diploma", "associate"}},
}

// NormalizeLevel returns the highest education level mentioned in items.
// Unrecognised text counts as Bachelors; no text at all is LevelNone.
func NormalizeLevel(items []string) Level {
	text := strings.ToLower(strings.TrimSpace(strings.Join(items, " ")))
	if text == "" {
		return LevelNone
	}

	for _, lt := range levelTerms {
		for _, term := range lt.terms {
			if strings.Contains(text, term) {
				return lt.level
			}
		}
	}
	return LevelBachelors
}

// EducationMatch scores how well the resume's education meets the JD's.
type EducationMatch struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// MatchEducation compares the highest levels of both lists.
func MatchEducation(resume, jd []string) EducationMatch {
	jdLevel := NormalizeLevel(jd)
	if jdLevel == LevelNone {
		return EducationMatch{Score: 100, Explanation: "No education requirement specified"}
	}

	resumeLevel := NormalizeLevel(resume)
	if resumeLevel == LevelNone {
		return EducationMatch{Score: 50, Explanation: "Education not found in resume"}
	}

	switch {
	case resumeLevel >= jdLevel:
		return EducationMatch{Score: 100, Explanation: fmt.Sprintf("%s meets %s requirement", resumeLevel, jdLevel)}
	case resumeLevel == jdLevel-1:
		return EducationMatch{Score: 60, Explanation: fmt.Sprintf("%s is one level below %s requirement", resumeLevel, jdLevel)}
	default:
		return EducationMatch{Score: 30, Explanation: fmt.Sprintf("%s does not meet %s requirement", resumeLevel, jdLevel)}
	}
}
