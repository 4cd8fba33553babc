package loader

import (
	"go.uber.org/zap"

	"github.com/spektr-org/plwdash/schema"
)

// Stats counts what Normalize had to coerce.
type Stats struct {
	Rows            int                  `json:"rows"`
	BlankRows       int                  `json:"blank_rows"`
	MalformedRows   int                  `json:"malformed_rows"`
	ShortRows       int                  `json:"short_rows"`
	BlankIDs        int                  `json:"blank_ids"`
	BadDates        int                  `json:"bad_dates"`
	BadAmounts      map[schema.Field]int `json:"bad_amounts,omitempty"`
	NegativeAmounts map[schema.Field]int `json:"negative_amounts,omitempty"`
}

// Coerced is the number of cells and rows that did not parse as written.
// Blank ids and blank rows are data, not coercions, and are left out.
func (s Stats) Coerced() int {
	n := s.MalformedRows + s.ShortRows + s.BadDates
	for _, c := range s.BadAmounts {
		n += c
	}
	for _, c := range s.NegativeAmounts {
		n += c
	}
	return n
}

func (s *Stats) addBadAmount(f schema.Field) {
	if s.BadAmounts == nil {
		s.BadAmounts = make(map[schema.Field]int)
	}
	s.BadAmounts[f]++
}

func (s *Stats) addNegativeAmount(f schema.Field) {
	if s.NegativeAmounts == nil {
		s.NegativeAmounts = make(map[schema.Field]int)
	}
	s.NegativeAmounts[f]++
}

func (s Stats) zapFields() []zap.Field {
	return []zap.Field{
		zap.Int("malformed_rows", s.MalformedRows),
		zap.Int("short_rows", s.ShortRows),
		zap.Int("blank_ids", s.BlankIDs),
		zap.Int("bad_dates", s.BadDates),
		zap.Any("bad_amounts", s.BadAmounts),
		zap.Any("negative_amounts", s.NegativeAmounts),
	}
}
