// Package entities extracts skills, education and resume profile fields from
// documents by running keyword, NER, section and LLM sources and reconciling
// their outputs.
package entities

// Bag is a deduplicated set of skills and education entries. Order is the
// order of first appearance.
type Bag struct {
	Skills    []string `json:"skills"`
	Education []string `json:"education"`
}

// NewBag cleans both lists and maps known skills to their vocabulary spelling.
func NewBag(skills, education []string) Bag {
	canon := make([]string, 0, len(skills))
	for _, s := range skills {
		canon = append(canon, CanonicalSkill(s))
	}
	return Bag{Skills: Clean(canon), Education: Clean(education)}
}

// Profile is everything extracted from a resume.
type Profile struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Skills          []string `json:"skills"`
	Education       []string `json:"education"`
	Companies       []string `json:"companies"`
	Designation     []string `json:"designation"`
	Location        []string `json:"location"`
	ExperienceYears float64  `json:"experience_years"`
}

// Bag returns the skills and education of the profile.
func (p *Profile) Bag() Bag {
	return Bag{Skills: p.Skills, Education: p.Education}
}
