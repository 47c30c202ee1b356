package kb

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func sampleRecords() []Record {
	return []Record{
		{
			ID:          253,
			Name:        "星际牛仔",
			Score:       9.1,
			Rank:        3,
			RatingTotal: 20000,
			Tags:        []string{"科幻", "Sunrise"},
			Summary:     "2071年 <太阳系>",
			Reviews:     []Review{},
		},
		{
			ID:      12,
			Name:    "N/A",
			Tags:    []string{},
			Summary: "",
			Reviews: []Review{},
		},
	}
}

func TestEncode_Format(t *testing.T) {
	data, err := Encode(sampleRecords()[:1])
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := `[
    {
        "id": 253,
        "name": "星际牛仔",
        "score": 9.1,
        "rank": 3,
        "rating_total": 20000,
        "tags": [
            "科幻",
            "Sunrise"
        ],
        "summary": "2071年 <太阳系>",
        "reviews": []
    }
]
`
	if string(data) != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", data, want)
	}
}

func TestEncode_Nil(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode(nil) error = %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Encode(nil) = %q, want []", data)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	records := sampleRecords()

	if err := Save(path, records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, records) {
		t.Errorf("Load() = %#v, want %#v", loaded, records)
	}
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 4096)), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := Save(path, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("file = %q, want []", data)
	}
}

func TestSave_WriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "data.json")
	if err := Save(path, sampleRecords()); err == nil {
		t.Error("Save() into a missing directory should fail")
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "malformed.json")
	if err := os.WriteFile(malformed, []byte(`[{"id": 1,`), 0o644); err != nil {
		t.Fatal(err)
	}
	object := filepath.Join(dir, "object.json")
	if err := os.WriteFile(object, []byte(`{"id": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	fractionalRank := filepath.Join(dir, "fractional-rank.json")
	if err := os.WriteFile(fractionalRank, []byte(`[{"id": 1, "rank": 5.5}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "missing file", path: filepath.Join(dir, "data.json"), wantErr: ErrMissingInput},
		{name: "truncated json", path: malformed, wantErr: ErrInvalidInput},
		{name: "object instead of array", path: object, wantErr: ErrInvalidInput},
		{name: "fractional rank", path: fractionalRank, wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecord_UnmarshalDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	raw := `[{"id":1,"name":"Test","rank":5,"score":8.1,"tags":["A","B"],"summary":"Hi"},{"id":2},{"id":3,"summary":""},{"id":4,"rank":5.0}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if records[0].Summary != "Hi" || records[0].Rank != 5 || records[0].Score != 8.1 {
		t.Errorf("record 0 = %#v", records[0])
	}
	if records[1].Summary != NoSummary {
		t.Errorf("absent summary = %q, want %q", records[1].Summary, NoSummary)
	}
	if records[1].Tags == nil || records[1].Reviews == nil {
		t.Error("absent lists should decode as empty slices")
	}
	if records[2].Summary != "" {
		t.Errorf("explicit empty summary = %q, want empty", records[2].Summary)
	}
	if records[3].Rank != 5 {
		t.Errorf("rank written as 5.0 = %d, want 5", records[3].Rank)
	}
}

func TestRecord_UnmarshalRank(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "integer", raw: `{"rank": 5}`, want: 5},
		{name: "whole float", raw: `{"rank": 5.0}`, want: 5},
		{name: "exponent", raw: `{"rank": 1e3}`, want: 1000},
		{name: "null", raw: `{"rank": null}`, want: 0},
		{name: "absent", raw: `{"id": 1}`, want: 0},
		{name: "fraction", raw: `{"rank": 5.5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			err := json.Unmarshal([]byte(tt.raw), &r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && r.Rank != tt.want {
				t.Errorf("Rank = %d, want %d", r.Rank, tt.want)
			}
		})
	}
}
