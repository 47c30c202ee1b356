package formatter

import (
	"testing"

	"github.com/Sternrassler/bangumi-kb/pkg/kb"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		name         string
		records      []kb.Record
		wantHeadings int
		wantBreaks   int
		wantMatch    bool
	}{
		{
			name:         "single block",
			records:      []kb.Record{sampleRecord()},
			wantHeadings: 1,
			wantBreaks:   0,
			wantMatch:    true,
		},
		{
			name: "blocks with and without tags",
			records: []kb.Record{
				sampleRecord(),
				{ID: 2, Name: "Bare"},
				{ID: 3, Name: "Tagged", Tags: []string{"A"}},
			},
			wantHeadings: 3,
			wantBreaks:   2,
			wantMatch:    true,
		},
		{
			name: "summary with its own heading",
			records: []kb.Record{
				{ID: 1, Name: "One", Summary: "# Chapter\ntext"},
				{ID: 2, Name: "Two"},
			},
			wantHeadings: 3,
			wantBreaks:   1,
			wantMatch:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Inspect(Join(RenderAll(tt.records)))
			if err != nil {
				t.Fatalf("Inspect() error = %v", err)
			}
			if s.Headings != tt.wantHeadings {
				t.Errorf("Headings = %d, want %d", s.Headings, tt.wantHeadings)
			}
			if s.ThematicBreaks != tt.wantBreaks {
				t.Errorf("ThematicBreaks = %d, want %d", s.ThematicBreaks, tt.wantBreaks)
			}
			if got := s.Matches(len(tt.records)); got != tt.wantMatch {
				t.Errorf("Matches(%d) = %v, want %v", len(tt.records), got, tt.wantMatch)
			}
		})
	}
}

func TestStructure_MatchesEmpty(t *testing.T) {
	if !(Structure{}).Matches(0) {
		t.Error("empty structure should match zero blocks")
	}
}
