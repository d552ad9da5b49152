package entities

import (
	"strings"
	"unicode/utf8"
)

const (
	maxSkillLength     = 30
	maxEducationLength = 60
)

var skillBlacklist = []string{
	"experience", "knowledge", "understanding", "ability", "working",
	"expertise", "proficiency", "familiarity", "background",
	"machine learning experience", "deep learning experience",
	"fine-tuning", "cloud platforms",
}

var phraseMarkers = []string{" in ", " of ", " with "}

var headerPrefixes = []string{"EDUCATION", "SKILLS", "WORK", "COMPANY", "EXPERIENCE"}

// ValidateSkills drops items that read like requirement phrases rather than skills.
func ValidateSkills(skills []string) []string {
	valid := make([]string, 0, len(skills))
	for _, skill := range skills {
		if utf8.RuneCountInString(skill) > maxSkillLength {
			continue
		}

		lower := strings.ToLower(strings.TrimSpace(skill))
		if containsAny(lower, skillBlacklist) || containsAny(lower, phraseMarkers) {
			continue
		}

		valid = append(valid, skill)
	}
	return valid
}

// ValidateEducation trims quotes and braces and drops sentence-length or
// serialised-object items.
func ValidateEducation(items []string) []string {
	valid := make([]string, 0, len(items))
	for _, item := range items {
		if looksLikeObject(item) {
			continue
		}
		clean := strings.TrimSpace(strings.Trim(strings.TrimSpace(item), `'"{}`))
		if clean == "" || utf8.RuneCountInString(clean) > maxEducationLength {
			continue
		}
		if strings.Contains(strings.ToLower(clean), "institution") {
			continue
		}
		valid = append(valid, clean)
	}
	return valid
}

// looksLikeObject reports whether item is a serialised key/value object such
// as {"degree":"BSc"}. A bare braced value like {MSc} is not.
func looksLikeObject(item string) bool {
	item = strings.TrimSpace(item)
	if strings.HasPrefix(item, "{") && strings.Contains(item, ":") {
		return true
	}
	return strings.Contains(item, `":`)
}

// Clean trims items and drops empty, single-character and section-header-like
// entries, then removes case-insensitive duplicates keeping the first spelling.
func Clean(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if utf8.RuneCountInString(item) <= 1 {
			continue
		}
		if hasAnyPrefix(strings.ToUpper(item), headerPrefixes) {
			continue
		}

		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, item)
	}
	return cleaned
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
