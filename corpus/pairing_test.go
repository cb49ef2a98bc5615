package corpus

import (
	"reflect"
	"testing"
)

func TestDiscoverPairs(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		opts  []DiscoverOption
		want  []Pairing
	}{
		{
			name:  "two hypotheses for one reference",
			files: []string{"a_whisper2.txt", "a.txt", "a_whisper.txt"},
			want:  []Pairing{{Reference: "a.txt", Hypotheses: []string{"a_whisper.txt", "a_whisper2.txt"}}},
		},
		{
			name:  "orphan hypothesis is dropped",
			files: []string{"b_whisper.txt"},
			want:  []Pairing{},
		},
		{
			name:  "reference without hypotheses is kept",
			files: []string{"c.txt"},
			want:  []Pairing{{Reference: "c.txt", Hypotheses: []string{}}},
		},
		{
			name:  "longest prefix wins",
			files: []string{"a.txt", "a2.txt", "a2_whisper.txt", "a_whisper.txt"},
			want: []Pairing{
				{Reference: "a.txt", Hypotheses: []string{"a_whisper.txt"}},
				{Reference: "a2.txt", Hypotheses: []string{"a2_whisper.txt"}},
			},
		},
		{
			name:  "match all attaches to every prefix",
			files: []string{"a.txt", "a2.txt", "a2_whisper.txt"},
			opts:  []DiscoverOption{WithMatchMode(MatchAll)},
			want: []Pairing{
				{Reference: "a.txt", Hypotheses: []string{"a2_whisper.txt"}},
				{Reference: "a2.txt", Hypotheses: []string{"a2_whisper.txt"}},
			},
		},
		{
			name:  "extension is stripped at the last dot",
			files: []string{"talk.v2.txt", "talk.v2_whisper.txt"},
			want:  []Pairing{{Reference: "talk.v2.txt", Hypotheses: []string{"talk.v2_whisper.txt"}}},
		},
		{
			name:  "other extensions and excluded names are ignored",
			files: []string{"a.txt", "a.TXT.bak", "wer_results_werpy.csv", "a_whisper.TXT", "notes.md"},
			opts:  []DiscoverOption{WithExclude(DefaultReportName)},
			want:  []Pairing{{Reference: "a.txt", Hypotheses: []string{"a_whisper.TXT"}}},
		},
		{
			name:  "custom extensions",
			files: []string{"a.lab", "a_whisper.lab", "b.txt"},
			opts:  []DiscoverOption{WithExtensions("lab")},
			want:  []Pairing{{Reference: "a.lab", Hypotheses: []string{"a_whisper.lab"}}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DiscoverPairs(tc.files, DefaultMarker, tc.opts...)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestDiscoverReportsUnmatched(t *testing.T) {
	d := Discover([]string{"a.txt", "b_whisper.txt", "a_whisper.txt", "z_whisper.txt"}, DefaultMarker)
	want := []string{"b_whisper.txt", "z_whisper.txt"}
	if !reflect.DeepEqual(d.Unmatched, want) {
		t.Errorf("expected unmatched %v, got %v", want, d.Unmatched)
	}
}

func TestDiscoverIsOrderIndependent(t *testing.T) {
	a := DiscoverPairs([]string{"b.txt", "a.txt", "b_whisper.txt", "a_whisper.txt"}, DefaultMarker)
	b := DiscoverPairs([]string{"a_whisper.txt", "b_whisper.txt", "a.txt", "b.txt"}, DefaultMarker)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("listing order changed the result: %+v vs %+v", a, b)
	}
	if a[0].Reference != "a.txt" {
		t.Errorf("expected sorted references, got %+v", a)
	}
}
