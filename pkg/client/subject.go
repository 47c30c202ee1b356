package client

// ListParams are the query parameters of the subject listing endpoint.
type ListParams struct {
	Type   int
	Sort   string
	Limit  int
	Offset int
}

// SubjectPage is one page of GET /subjects.
type SubjectPage struct {
	Data   []SubjectSummary `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// IDs returns the subject ids of the page in server order.
func (p *SubjectPage) IDs() []int {
	ids := make([]int, 0, len(p.Data))
	for _, s := range p.Data {
		ids = append(ids, s.ID)
	}
	return ids
}

// SubjectSummary is the part of a listed subject the collector needs.
type SubjectSummary struct {
	ID int `json:"id"`
}

// Subject is the detail record of GET /subjects/{id}. Every field is
// optional on the wire, so the accessors below take an explicit fallback.
type Subject struct {
	ID      *int    `json:"id"`
	Name    *string `json:"name"`
	NameCN  *string `json:"name_cn"`
	Rating  *Rating `json:"rating"`
	Rank    *int    `json:"rank"`
	Tags    []Tag   `json:"tags"`
	Summary *string `json:"summary"`
}

// Rating holds the aggregated user score.
type Rating struct {
	Score *float64 `json:"score"`
	Total *int     `json:"total"`
	Rank  *int     `json:"rank"`
}

// Tag is a user tag with its vote count.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// IDOr returns the subject id or fallback.
func (s *Subject) IDOr(fallback int) int {
	if s.ID == nil {
		return fallback
	}
	return *s.ID
}

// DisplayName prefers a non-empty localized name over the original name.
// fallback is used only when the original name is absent.
func (s *Subject) DisplayName(fallback string) string {
	if s.NameCN != nil && *s.NameCN != "" {
		return *s.NameCN
	}
	if s.Name != nil {
		return *s.Name
	}
	return fallback
}

// ScoreOr returns rating.score or fallback.
func (s *Subject) ScoreOr(fallback float64) float64 {
	if s.Rating == nil || s.Rating.Score == nil {
		return fallback
	}
	return *s.Rating.Score
}

// RatingTotalOr returns rating.total or fallback.
func (s *Subject) RatingTotalOr(fallback int) int {
	if s.Rating == nil || s.Rating.Total == nil {
		return fallback
	}
	return *s.Rating.Total
}

// RankOr returns the top-level rank, then rating.rank, then fallback.
func (s *Subject) RankOr(fallback int) int {
	if s.Rank != nil {
		return *s.Rank
	}
	if s.Rating != nil && s.Rating.Rank != nil {
		return *s.Rating.Rank
	}
	return fallback
}

// SummaryOr returns the summary as sent, or fallback when absent.
func (s *Subject) SummaryOr(fallback string) string {
	if s.Summary == nil {
		return fallback
	}
	return *s.Summary
}

// TagNames returns at most max tag names in server order.
func (s *Subject) TagNames(max int) []string {
	n := len(s.Tags)
	if max >= 0 && n > max {
		n = max
	}
	names := make([]string, 0, n)
	for _, tag := range s.Tags[:n] {
		names = append(names, tag.Name)
	}
	return names
}
