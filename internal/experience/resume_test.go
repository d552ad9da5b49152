package experience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTotalExperience(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		text   string
		expect float64
	}{
		{
			name: "closed and open month ranges",
			text: "John Doe\nWORK EXPERIENCE\nAcme Corp Jan 2020 - Jan 2022\n" +
				"Beta Inc March 2022 - Present\nEDUCATION\nB.Tech 2015 - 2019",
			expect: 5.6,
		},
		{
			name:   "bare year open range",
			text:   "Experience\nGlobex 2018 - Present\nSkills\nGo",
			expect: 7.8,
		},
		{
			name:   "implausible total resets",
			text:   "Experience\nInitech Jan 1950 - Jan 2010\n",
			expect: 0,
		},
		{
			name:   "no experience header",
			text:   "Jane Doe\nSkills: Go\nJan 2020 - Jan 2022",
			expect: 0,
		},
		{
			name:   "year inside a month range is not counted again",
			text:   "Experience\nAcme May 2023 - Present\n",
			expect: 2.4,
		},
		{
			name:   "overlapping ranges are summed",
			text:   "Experience\nAcme Jan 2020 - Jan 2022\nBeta Jan 2021 - Jan 2022\n",
			expect: 3,
		},
		{
			name:   "reversed dates do not count",
			text:   "Experience\nAcme Dec 2022 - Jan 2020",
			expect: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.expect, TotalExperience(tt.text, now, DefaultMaxYears), 1e-9)
		})
	}
}
