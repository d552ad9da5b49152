package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		items []string
		want  Level
	}{
		{items: nil, want: LevelNone},
		{items: []string{"  "}, want: LevelNone},
		{items: []string{"Ph.D in Physics"}, want: LevelPhD},
		{items: []string{"B.Tech", "MBA"}, want: LevelMasters},
		{items: []string{"Bachelor of Science"}, want: LevelBachelors},
		{items: []string{"Associate degree"}, want: LevelDiploma},
		{items: []string{"Stanford University"}, want: LevelBachelors},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLevel(tt.items), "%v", tt.items)
	}
}

func TestMatchEducation(t *testing.T) {
	tests := []struct {
		name   string
		resume []string
		jd     []string
		want   EducationMatch
	}{
		{
			name: "no requirement",
			jd:   nil,
			want: EducationMatch{Score: 100, Explanation: "No education requirement specified"},
		},
		{
			name: "missing on resume",
			jd:   []string{"Bachelor's"},
			want: EducationMatch{Score: 50, Explanation: "Education not found in resume"},
		},
		{
			name:   "meets",
			resume: []string{"M.Tech"},
			jd:     []string{"B.Tech"},
			want:   EducationMatch{Score: 100, Explanation: "Masters meets Bachelors requirement"},
		},
		{
			name:   "one below",
			resume: []string{"B.Tech"},
			jd:     []string{"Master's in Data Science"},
			want:   EducationMatch{Score: 60, Explanation: "Bachelors is one level below Masters requirement"},
		},
		{
			name:   "two below",
			resume: []string{"Diploma"},
			jd:     []string{"PhD"},
			want:   EducationMatch{Score: 30, Explanation: "Diploma does not meet PhD requirement"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchEducation(tt.resume, tt.jd))
		})
	}
}
