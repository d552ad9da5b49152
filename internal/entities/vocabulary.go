package entities

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/spigell/ats-scorer/internal/textnorm"
)

// Vocabulary is the fixed list of technical skills recognised by keyword matching.
var Vocabulary = []string{
	// Programming languages
	"Python", "Java", "JavaScript", "TypeScript", "C++", "C#", "Go", "Rust", "Ruby", "PHP", "Scala", "R", "Julia",

	// Data engineering and big data
	"PySpark", "Apache Spark", "Hadoop", "Hive", "Kafka", "Apache Kafka", "Airflow", "Apache Airflow",
	"Databricks", "Snowflake", "BigQuery", "Redshift", "Presto", "Trino", "Flink", "Storm",

	// Databases
	"SQL", "MySQL", "PostgreSQL", "MongoDB", "Cassandra", "Redis", "Elasticsearch", "DynamoDB",
	"Oracle", "SQL Server", "MariaDB", "Neo4j", "Couchbase",

	// Cloud platforms and services
	"AWS", "Azure", "GCP", "Google Cloud", "S3", "EC2", "Lambda", "Glue", "EMR", "Athena",
	"Step Functions", "CloudFormation", "Terraform", "SageMaker", "Kinesis", "CloudWatch",
	"Azure Data Factory", "Azure Databricks", "Google Cloud Storage", "Cloud Functions",

	// ML and AI
	"TensorFlow", "PyTorch", "Keras", "Scikit-learn", "XGBoost", "LightGBM", "Hugging Face",
	"NLTK", "spaCy", "OpenCV", "MLflow", "Kubeflow", "LangChain", "LlamaIndex",

	// Analytics
	"Pandas", "NumPy", "Matplotlib", "Seaborn", "Plotly", "Tableau", "Power BI", "Looker",
	"Excel", "Jupyter", "SAS", "SPSS",

	// DevOps
	"Docker", "Kubernetes", "Jenkins", "GitLab CI", "GitHub Actions", "CircleCI", "ArgoCD",

	// Version control
	"Git", "GitHub", "GitLab", "Bitbucket", "SVN",

	// Web frameworks
	"Flask", "Django", "FastAPI", "Spring", "Node.js", "React", "Angular", "Vue.js",
	"Express", "Streamlit", "Gradio",

	// ETL
	"Talend", "Informatica", "SSIS", "Apache NiFi", "Pentaho", "dbt",

	// Other
	"REST API", "GraphQL", "Microservices", "CI/CD", "Agile", "Scrum", "JIRA",
	"Linux", "Unix", "Bash", "Shell Scripting", "PowerShell",
}

// sectionVocabulary is matched inside a resume's skills section only.
var sectionVocabulary = []string{
	"Machine Learning", "Deep Learning", "Natural Language Processing",
	"Big Data", "Python", "Java", "JavaScript", "SQL", "React", "Angular",
	"HTML5", "HTML", "CSS3", "CSS", "Bootstrap", "jQuery", "Photoshop",
	"Docker", "Kubernetes", "AWS", "Azure", "MongoDB", "PostgreSQL",
	"Git", "Node.js", "Django", "Flask", "Spring", "TypeScript",
	"C++", "C#", "Ruby", "PHP", "SASS",
}

type keyword struct {
	term    string
	pattern *regexp.Regexp
}

var (
	vocabularyPatterns = compileKeywords(Vocabulary)
	sectionPatterns    = compileKeywords(sectionVocabulary)
	canonical          = canonicalForms(Vocabulary, sectionVocabulary)
)

func compileKeywords(terms []string) []keyword {
	out := make([]keyword, 0, len(terms))
	for _, term := range terms {
		out = append(out, keyword{term: term, pattern: keywordPattern(term)})
	}
	return out
}

// keywordPattern matches term as a whole word. Terms that start or end with a
// symbol ("C++", "C#") use an explicit non-word boundary on that side.
func keywordPattern(term string) *regexp.Regexp {
	lower := strings.ToLower(term)
	runes := []rune(lower)

	left, right := `\b`, `\b`
	if !isWordRune(runes[0]) {
		left = `(?:^|\W)`
	}
	if !isWordRune(runes[len(runes)-1]) {
		right = `(?:$|\W)`
	}
	return regexp.MustCompile(left + regexp.QuoteMeta(lower) + right)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func canonicalForms(lists ...[]string) map[string]string {
	forms := make(map[string]string)
	for _, list := range lists {
		for _, term := range list {
			key := strings.ToLower(term)
			if _, ok := forms[key]; !ok {
				forms[key] = term
			}
		}
	}
	return forms
}

// CanonicalSkill returns the vocabulary spelling of skill when it is a known term.
func CanonicalSkill(skill string) string {
	skill = strings.TrimSpace(skill)
	if form, ok := canonical[strings.ToLower(skill)]; ok {
		return form
	}
	return skill
}

// MatchKeywords returns the vocabulary terms present in text, in vocabulary order.
func MatchKeywords(text string) []string {
	return matchKeywords(text, vocabularyPatterns)
}

func matchKeywords(text string, keywords []keyword) []string {
	lower := strings.ToLower(textnorm.Fold(text))

	var found []string
	for _, k := range keywords {
		if k.pattern.MatchString(lower) {
			found = append(found, k.term)
		}
	}
	return found
}

var degreeRe = regexp.MustCompile(`(?i)\b(bachelor'?s?|master'?s?|b\.tech\.?|m\.tech\.?|b\.sc\.?|m\.sc\.?|b\.s\.|m\.s\.|b\.e\.|m\.e\.|ph\.?d\.?|doctorate|mba|diploma)(\s+degree)?(?:\s+(?:in|of)\s+(computer science|information technology|software engineering|data science|artificial intelligence|business administration|engineering|statistics|mathematics|physics|economics|science))?`)

var degreeLabels = []struct {
	prefix string
	label  string
}{
	{"bachelor", "Bachelor's"},
	{"master", "Master's"},
	{"b.tech", "B.Tech"},
	{"m.tech", "M.Tech"},
	{"b.sc", "B.Sc"},
	{"m.sc", "M.Sc"},
	{"b.s.", "B.S."},
	{"m.s.", "M.S."},
	{"b.e.", "B.E."},
	{"m.e.", "M.E."},
	{"phd", "PhD"},
	{"ph.d", "PhD"},
	{"doctorate", "Doctorate"},
	{"mba", "MBA"},
	{"diploma", "Diploma"},
}

// MatchDegrees returns the degree requirements stated in text, for example
// "Master's in Computer Science" or "B.Tech".
func MatchDegrees(text string) []string {
	var found []string
	for _, m := range degreeRe.FindAllStringSubmatchIndex(text, -1) {
		degree := strings.ToLower(text[m[2]:m[3]])
		hasDegreeWord := m[4] != -1
		field := ""
		if m[6] != -1 {
			field = text[m[6]:m[7]]
		}

		// Reject a bare token glued to a following letter ("mastered", "diplomat").
		if !hasDegreeWord && field == "" && m[1] < len(text) && isLetterByte(text[m[1]]) {
			continue
		}

		// A bare "master" or "bachelor" ("scrum master") is not a degree.
		if (degree == "master" || degree == "bachelor") && !hasDegreeWord && field == "" {
			continue
		}

		label := degreeLabel(degree)
		if field != "" {
			label += " in " + titleCase(field)
		}
		found = append(found, label)
	}
	return found
}

func degreeLabel(degree string) string {
	for _, d := range degreeLabels {
		if strings.HasPrefix(degree, d.prefix) {
			return d.label
		}
	}
	return titleCase(degree)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func isLetterByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
