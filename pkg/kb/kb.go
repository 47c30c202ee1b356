// Package kb reads and writes the knowledge base file, the only contract
// between the collector and the formatter.
package kb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
)

// Placeholders written for absent text fields.
const (
	NoName    = "N/A"
	NoSummary = "无简介"
)

var (
	// ErrMissingInput means the knowledge base file does not exist; the
	// collector has to run first.
	ErrMissingInput = errors.New("knowledge base not found, run the collector first")

	// ErrInvalidInput means the file exists but is not a JSON array of records.
	ErrInvalidInput = errors.New("knowledge base is not valid JSON")
)

// Record is one normalized subject.
type Record struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Score       float64  `json:"score"`
	Rank        int      `json:"rank"`
	RatingTotal int      `json:"rating_total"`
	Tags        []string `json:"tags"`
	Summary     string   `json:"summary"`
	Reviews     []Review `json:"reviews"`
}

// Review is reserved; the collector always writes an empty list.
type Review struct {
	Author  string `json:"author,omitempty"`
	Content string `json:"content,omitempty"`
}

// UnmarshalJSON fills an absent summary with NoSummary and absent lists
// with empty ones. An explicit empty summary stays empty. Rank accepts any
// whole number, including ones written with a fraction such as 5.0.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		Rank    json.Number `json:"rank"`
		Summary *string     `json:"summary"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	rank, err := parseRank(aux.Rank)
	if err != nil {
		return err
	}
	r.Rank = rank

	if aux.Summary == nil {
		r.Summary = NoSummary
	} else {
		r.Summary = *aux.Summary
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Reviews == nil {
		r.Reviews = []Review{}
	}
	return nil
}

func parseRank(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("rank %s is not a whole number", n)
	}
	return int(f), nil
}

// Encode renders records as an indented UTF-8 JSON array. Non-ASCII and
// HTML characters are written as-is.
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode knowledge base: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes records to path, replacing any existing file.
func Save(path string, records []Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write knowledge base %s: %w", path, err)
	}
	return nil
}

// Load reads the knowledge base at path.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("read knowledge base %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, path, err)
	}
	return records, nil
}
