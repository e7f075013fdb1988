package audit

import (
	"reflect"
	"testing"

	"github.com/gyaneshwarpardhi/disclosure/internal/event"
)

func TestExtractDates(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"iso", "seen 2024-01-05 and 2024-1-5 again", []string{"2024-01-05"}},
		{"dot and slash", "2023.12.01 visit, 2023/2/3 follow-up", []string{"2023-02-03", "2023-12-01"}},
		{"korean", "2022년 3월 7일 입원, 2022 년 12 월 25 일 퇴원", []string{"2022-03-07", "2022-12-25"}},
		{"invalid calendar date dropped", "2024-13-45 and 2023-02-30", []string{}},
		{"none", "no dates here", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractDates(tc.text); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractDates = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDateCoverage(t *testing.T) {
	text := "2024.01.01 City Hospital\n2024-02-10 admitted\n2024-02-15 discharged\n2023년 5월 1일 checkup"
	events := []event.Event{
		{Date: "2024-01-01"},
		{Date: "2024-02-10", EndDate: "2024-02-15"},
		{Date: "2020-01-01"},
	}
	c := DateCoverage(text, events)
	if c.SourceDates != 4 || c.EventDates != 4 || c.Matched != 3 {
		t.Errorf("coverage = %+v", c)
	}
	if !reflect.DeepEqual(c.Missing, []string{"2023-05-01"}) {
		t.Errorf("missing = %v", c.Missing)
	}
	if c.CoveragePercent != 75 {
		t.Errorf("percent = %v, want 75", c.CoveragePercent)
	}
}

func TestDateCoverage_NoDates(t *testing.T) {
	c := DateCoverage("nothing dated", nil)
	if c.CoveragePercent != 100 || c.Missing == nil || len(c.Missing) != 0 {
		t.Errorf("coverage = %+v, want 100%% with empty missing", c)
	}
}
