package store

import (
	"encoding/json"
	"fmt"

	"github.com/susu3304/chipbot/internal/model"
)

// EncodeDocs serializes the JSON columns of a session row.
func EncodeDocs(ranking []model.RankEntry, hand model.HandState) (rankingJSON, handJSON []byte, err error) {
	if ranking == nil {
		ranking = []model.RankEntry{}
	}
	rankingJSON, err = json.Marshal(ranking)
	if err != nil {
		return nil, nil, fmt.Errorf("encode ranking: %w", err)
	}
	handJSON, err = json.Marshal(hand)
	if err != nil {
		return nil, nil, fmt.Errorf("encode hand: %w", err)
	}
	return rankingJSON, handJSON, nil
}

// DecodeDocs fills a session's ranking and hand from stored JSON and
// validates the result. Malformed rows are rejected.
func DecodeDocs(s *model.Session, rankingJSON, handJSON []byte) error {
	s.Ranking = nil
	if len(rankingJSON) > 0 {
		if err := json.Unmarshal(rankingJSON, &s.Ranking); err != nil {
			return fmt.Errorf("%w: session %s ranking: %v", model.ErrInvalidRecord, s.ID, err)
		}
	}
	if len(s.Ranking) == 0 {
		s.Ranking = nil
	}
	s.Hand = model.HandState{}
	if len(handJSON) > 0 {
		if err := json.Unmarshal(handJSON, &s.Hand); err != nil {
			return fmt.Errorf("%w: session %s hand: %v", model.ErrInvalidRecord, s.ID, err)
		}
	}
	return s.Validate()
}
