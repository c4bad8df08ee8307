package farmers

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// Store keeps one running aggregate per farmer. It is owned by a single
// dashboard session and is not safe for concurrent use.
type Store struct {
	byID map[string]models.FarmerAggregate
}

// NewStore returns an empty aggregate store.
func NewStore() *Store {
	return &Store{byID: make(map[string]models.FarmerAggregate)}
}

// Rebuild replays records (newest first, as the feed is ordered) oldest to
// newest so the result equals applying each deposit as it arrived.
func Rebuild(records []models.CollectionRecord) *Store {
	s := NewStore()
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		s.RecordDeposit(r.FarmerID, r.FarmerName, r.Quantity, r.Timestamp)
	}
	return s
}

// RecordDeposit folds one deposit into the farmer's totals. lastDeposit takes
// the value of the latest call, so out-of-order delivery can move it back.
func (s *Store) RecordDeposit(farmerID, farmerName string, quantity float64, occurredAt time.Time) {
	agg, ok := s.byID[farmerID]
	if !ok {
		s.byID[farmerID] = models.FarmerAggregate{
			FarmerID:          farmerID,
			Name:              farmerName,
			TotalDeposits:     1,
			TotalQuantity:     quantity,
			LastDeposit:       occurredAt,
			FingerprintStatus: models.FingerprintRegistered,
		}
		return
	}

	agg.TotalDeposits++
	agg.TotalQuantity = decimal.NewFromFloat(agg.TotalQuantity).
		Add(decimal.NewFromFloat(quantity)).
		InexactFloat64()
	agg.LastDeposit = occurredAt
	s.byID[farmerID] = agg
}

// Get returns the aggregate for farmerID.
func (s *Store) Get(farmerID string) (models.FarmerAggregate, bool) {
	agg, ok := s.byID[farmerID]
	return agg, ok
}

// Len reports how many farmers have an aggregate.
func (s *Store) Len() int { return len(s.byID) }

// List returns a copy of every aggregate ordered by total quantity, highest
// first, then by farmer id.
func (s *Store) List() []models.FarmerAggregate {
	out := make([]models.FarmerAggregate, 0, len(s.byID))
	for _, agg := range s.byID {
		out = append(out, agg)
	}
	SortByQuantity(out)
	return out
}

// Reset drops every aggregate.
func (s *Store) Reset() {
	s.byID = make(map[string]models.FarmerAggregate)
}

// SortByQuantity orders aggregates the way the farmers table lists them.
func SortByQuantity(aggs []models.FarmerAggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].TotalQuantity != aggs[j].TotalQuantity {
			return aggs[i].TotalQuantity > aggs[j].TotalQuantity
		}
		return aggs[i].FarmerID < aggs[j].FarmerID
	})
}
