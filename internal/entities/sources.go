package entities

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/ats-scorer/internal/ai"
	"github.com/spigell/ats-scorer/internal/experience"
	"github.com/spigell/ats-scorer/internal/ner"
	"github.com/spigell/ats-scorer/internal/textnorm"
)

type keywordSource struct {
	toggle
}

// NewKeywords creates the vocabulary and degree-pattern source.
func NewKeywords() Source {
	return &keywordSource{}
}

func (s *keywordSource) Name() string { return SourceKeywords }

func (s *keywordSource) Extract(_ context.Context, doc Document) (*Findings, Step, error) {
	f := &Findings{
		Skills:    MatchKeywords(doc.Text),
		Education: MatchDegrees(doc.Text),
	}
	return f, stepOf(f), nil
}

func (s *keywordSource) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{"vocabulary": strconv.Itoa(len(Vocabulary))},
	}
}

type nerSource struct {
	toggle
	name       string
	annotator  ner.Annotator
	model      string
	pretrained bool
}

// NewTrainedNER creates a source backed by the domain model that labels
// SKILLS, EDUCATION and resume fields.
func NewTrainedNER(annotator ner.Annotator, model string) Source {
	return newNER(SourceTrainedNER, annotator, model, false)
}

// NewPretrainedNER creates a source backed by a general model that labels
// PERSON, ORG and GPE spans.
func NewPretrainedNER(annotator ner.Annotator, model string) Source {
	return newNER(SourcePretrainedNER, annotator, model, true)
}

func newNER(name string, annotator ner.Annotator, model string, pretrained bool) Source {
	s := &nerSource{name: name, annotator: annotator, model: model, pretrained: pretrained}
	if annotator == nil {
		s.Disable("ner service is not configured")
	}
	return s
}

func (s *nerSource) Name() string { return s.name }

func (s *nerSource) Extract(ctx context.Context, doc Document) (*Findings, Step, error) {
	if s.annotator == nil {
		return nil, Step{}, errors.New("ner annotator is required")
	}

	entities, err := s.annotator.Annotate(ctx, doc.Text, s.model)
	if err != nil {
		return nil, Step{}, err
	}

	f := &Findings{}
	switch {
	case s.pretrained:
		collectPretrained(f, entities, doc.Text)
	case doc.Kind == ai.KindResume:
		collectResume(f, entities)
	default:
		collectJD(f, entities)
	}
	return f, stepOf(f), nil
}

func (s *nerSource) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{"model": s.model},
	}
}

func collectJD(f *Findings, entities []ner.Entity) {
	for _, ent := range entities {
		switch ent.Label {
		case ner.LabelSkills:
			f.Skills = append(f.Skills, ent.Text)
		case ner.LabelEducation:
			f.Education = append(f.Education, ent.Text)
		}
	}
}

var (
	nameTechTerms    = []string{"HTML", "CSS", "JS", "Python", "Java"}
	companyRoleWords = []string{"Engineer", "Developer", "Manager", "Designer"}
)

const maxSkillTokens = 5

func collectResume(f *Findings, entities []ner.Entity) {
	longestName := ""
	for _, ent := range entities {
		switch ent.Label {
		case ner.LabelName:
			if !containsAnyCase(ent.Text, nameTechTerms) && len(ent.Text) > len(longestName) {
				longestName = ent.Text
			}
		case ner.LabelCompanies:
			if len(strings.Fields(ent.Text)) > 1 &&
				!strings.Contains(strings.ToLower(ent.Text), "and") &&
				!containsAnyCase(ent.Text, companyRoleWords) {
				f.Companies = append(f.Companies, ent.Text)
			}
		case ner.LabelDesignation:
			f.Designations = append(f.Designations, ent.Text)
		case ner.LabelCollege, ner.LabelEducation:
			f.Education = append(f.Education, ent.Text)
		case ner.LabelSkills:
			if len(strings.Fields(ent.Text)) <= maxSkillTokens {
				f.Skills = append(f.Skills, ent.Text)
			}
		case ner.LabelEmail:
			f.Emails = append(f.Emails, ent.Text)
		case ner.LabelLocation:
			f.Locations = append(f.Locations, ent.Text)
		}
	}
	if longestName != "" {
		f.Names = []string{longestName}
	}
}

var (
	wellKnownCompanies = []string{"Microsoft", "Google", "Amazon", "IBM", "Oracle", "Apple", "Meta", "Netflix", "Tesla"}
	cloudProducts      = map[string]bool{"Microsoft Azure": true, "Google Cloud": true}
	knownLocations     = map[string]bool{
		"Nagpur": true, "Maharashtra": true, "Mumbai": true, "Delhi": true, "Bangalore": true, "Pune": true,
		"Karnataka": true, "Hyderabad": true, "Chennai": true, "Kolkata": true, "India": true,
	}
)

const (
	maxPersonTokens = 4
	personWindow    = 200
)

func collectPretrained(f *Findings, entities []ner.Entity, text string) {
	for _, ent := range entities {
		switch ent.Label {
		case ner.LabelPerson:
			if len(f.Names) == 0 && len(strings.Fields(ent.Text)) <= maxPersonTokens {
				if idx := strings.Index(text, ent.Text); idx >= 0 && idx < personWindow {
					f.Names = append(f.Names, ent.Text)
				}
			}
		case ner.LabelOrg:
			if containsAnyCase(ent.Text, wellKnownCompanies) && !cloudProducts[ent.Text] {
				f.Companies = append(f.Companies, ent.Text)
			}
		case ner.LabelGPE:
			if knownLocations[ent.Text] {
				f.Locations = append(f.Locations, ent.Text)
			}
		}
	}
}

type sectionSource struct {
	toggle
	now      func() time.Time
	maxYears float64
}

// NewSections creates the resume layout source: first-line name, section
// windows, contact regexes and the employment-span total.
func NewSections(now func() time.Time, maxYears float64) Source {
	if now == nil {
		now = time.Now
	}
	return &sectionSource{now: now, maxYears: maxYears}
}

func (s *sectionSource) Name() string { return SourceSections }

const (
	skillsWindow         = 594
	educationWindow      = 491
	experienceWindow     = 2000
	companyDetailsWindow = 1500
	minCollegeLength     = 5
	minPhoneDigits       = 10
)

var (
	collegeRe        = regexp.MustCompile(`([A-Z][A-Za-z\s\.]+(?:College|University|Institute)[A-Za-z\s]*?)(?:\s*[–-]\s*|$|\n)`)
	sectionDegreeRe  = regexp.MustCompile(`(?i)\b(B\.E|B\.Tech|M\.Tech|MBA|MCA|B\.Sc|M\.Sc|Ph\.D|Bachelor|Master)\b`)
	companyLineRe    = regexp.MustCompile(`\n([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)?)\s*[–-]\s*[A-Z]`)
	companyDetailsRe = regexp.MustCompile(`(?i)company\s*[-:]\s*([A-Za-z0-9\s&\.]+?)(?:\n|description)`)
	designationRe    = regexp.MustCompile(`(?i)\n((?:Senior |Junior |Lead |Staff |Principal )?(?:Software|Web|Data|Full Stack|Backend|Frontend|DevOps)\s+(?:Engineer|Developer|Designer|Analyst|Architect))`)
	emailRe          = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	mobileRe         = regexp.MustCompile(`(?:\+91|0)?[6-9]\d{9}`)
	phoneRe          = regexp.MustCompile(`\+?\d[\d\s\-\(\)]{9,}\d`)

	roleTitles = map[string]bool{"Software Engineer": true, "Senior Developer": true, "Web Designer": true, "Junior Developer": true}
)

func (s *sectionSource) Extract(_ context.Context, doc Document) (*Findings, Step, error) {
	f := &Findings{}
	if doc.Kind != ai.KindResume {
		return f, Step{}, nil
	}
	text := doc.Text

	if name := firstLineName(text); name != "" {
		f.Names = []string{name}
	}

	if section, ok := textnorm.Window(text, []string{"SKILLS"}, skillsWindow); ok {
		f.Skills = matchKeywords(section, sectionPatterns)
	}

	if section, ok := textnorm.Window(text, []string{"EDUCATION"}, educationWindow); ok {
		for _, m := range collegeRe.FindAllStringSubmatch(section, -1) {
			if college := strings.TrimSpace(m[1]); len(college) > minCollegeLength {
				f.Education = append(f.Education, college)
			}
		}
		for _, m := range sectionDegreeRe.FindAllStringSubmatch(section, -1) {
			f.Education = append(f.Education, m[1])
		}
	}

	if section, ok := textnorm.Window(text, []string{"EXPERIENCE"}, experienceWindow); ok {
		for _, m := range companyLineRe.FindAllStringSubmatch(section, -1) {
			if !roleTitles[m[1]] {
				f.Companies = append(f.Companies, m[1])
			}
		}
	}

	if section, ok := textnorm.Window(text, []string{"COMPANY DETAILS"}, companyDetailsWindow); ok {
		for _, m := range companyDetailsRe.FindAllStringSubmatch(section, -1) {
			company := strings.TrimSpace(m[1])
			if !strings.Contains(company, "www.") && !strings.Contains(company, "description") && len(company) > 3 {
				f.Companies = append(f.Companies, company)
			}
		}
	}

	for _, m := range designationRe.FindAllStringSubmatch(text, -1) {
		f.Designations = append(f.Designations, m[1])
	}

	f.Emails = emailRe.FindAllString(text, -1)
	for _, phone := range append(mobileRe.FindAllString(text, -1), phoneRe.FindAllString(text, -1)...) {
		if countDigits(phone) >= minPhoneDigits {
			f.Phones = append(f.Phones, strings.TrimSpace(phone))
		}
	}

	f.ExperienceYears = experience.TotalExperience(text, s.now(), s.maxYears)

	return f, stepOf(f), nil
}

func (s *sectionSource) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{"max_experience_years": strconv.FormatFloat(s.maxYears, 'f', -1, 64)},
	}
}

var firstLineExcluded = []string{"@", "http", "•", ":"}

// firstLineName returns the first non-empty line when it looks like a person's
// name: two to four words, shorter than 50 characters, capitalised, and free
// of contact markers and technology terms.
func firstLineName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		words := len(strings.Fields(line))
		switch {
		case words < 2 || words > 4,
			len(line) >= 50,
			containsAnyCase(line, firstLineExcluded),
			containsAnyCase(line, []string{"HTML", "CSS", "JavaScript", "Python", "Java"}),
			line[0] < 'A' || line[0] > 'Z':
			return ""
		}
		return line
	}
	return ""
}

type llmSource struct {
	toggle
	extractor ai.EntityExtractor
}

// NewLLM creates the language-model source. Its skills and education pass the
// validation filter before they are reported.
func NewLLM(extractor ai.EntityExtractor) Source {
	s := &llmSource{extractor: extractor}
	if extractor == nil {
		s.Disable("llm is not configured")
	}
	return s
}

func (s *llmSource) Name() string { return SourceLLM }

func (s *llmSource) Extract(ctx context.Context, doc Document) (*Findings, Step, error) {
	if s.extractor == nil {
		return nil, Step{}, errors.New("llm extractor is required")
	}

	res, err := s.extractor.ExtractEntities(ctx, doc.Text, doc.Kind)
	if err != nil {
		return nil, Step{}, err
	}

	f := &Findings{
		Skills:          ValidateSkills(res.Skills),
		Education:       ValidateEducation(res.Education),
		ExperienceYears: res.ExperienceYears,
	}
	if name := strings.TrimSpace(res.Name); name != "" {
		f.Names = []string{name}
	}
	if email := strings.TrimSpace(res.Email); email != "" {
		f.Emails = []string{email}
	}
	if phone := strings.TrimSpace(res.Phone); phone != "" {
		f.Phones = []string{phone}
	}
	return f, stepOf(f), nil
}

func (s *llmSource) Status() Status {
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason}
}

// containsAnyCase reports whether s contains any of terms, case-sensitively.
func containsAnyCase(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
