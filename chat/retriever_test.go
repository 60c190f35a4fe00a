package chat

import (
	"testing"
	"time"

	"famhealth-backend/records"
)

// countingStore records which read path the retriever took.
type countingStore struct {
	findCalls   int
	latestCalls int
	lastFrom    time.Time
	lastTo      time.Time
	lastLimit   int
	rows        []records.Observation
}

func (s *countingStore) FindObservations(memberID int, from, to time.Time) ([]records.Observation, error) {
	s.findCalls++
	s.lastFrom, s.lastTo = from, to
	return s.rows, nil
}

func (s *countingStore) LatestObservations(memberID, limit int) ([]records.Observation, error) {
	s.latestCalls++
	s.lastLimit = limit
	return s.rows, nil
}

func (s *countingStore) CountAll(memberID int) (int, error) {
	return len(s.rows), nil
}

func TestRetrieveLatestOnlyUsesLatestPath(t *testing.T) {
	store := &countingStore{rows: []records.Observation{obs("2026-05-01", "Hemoglobin", 13.0, "g/dl")}}
	r := NewRetriever(store)

	set, err := r.Retrieve(1, TimeWindow{LatestOnly: true}, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.latestCalls != 1 || store.findCalls != 0 {
		t.Fatalf("latestCalls=%d findCalls=%d, want 1 and 0", store.latestCalls, store.findCalls)
	}
	if store.lastLimit != defaultLatestLimit {
		t.Fatalf("limit = %d, want %d", store.lastLimit, defaultLatestLimit)
	}
	if set.TotalEver != 1 || len(set.All) != 1 {
		t.Fatalf("set = %+v", set)
	}
}

func TestRetrieveDateWindowUsesFindPath(t *testing.T) {
	store := &countingStore{}
	r := NewRetriever(store)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if _, err := r.Retrieve(1, TimeWindow{From: from, To: to}, nil); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.findCalls != 1 || store.latestCalls != 0 {
		t.Fatalf("findCalls=%d latestCalls=%d, want 1 and 0", store.findCalls, store.latestCalls)
	}
	if !store.lastFrom.Equal(from) || !store.lastTo.Equal(to) {
		t.Fatalf("window passed through = [%v, %v]", store.lastFrom, store.lastTo)
	}
}

func TestRetrieveFiltersRelevantByTopic(t *testing.T) {
	store := &countingStore{rows: []records.Observation{
		obs("2026-05-01", "Hemoglobin", 13.0, "g/dl"),
		obs("2026-05-01", "Glucose Fasting", 92, "mg/dl"),
		obs("2026-05-01", "Serum Ferritin", 80, "ng/ml"),
	}}
	r := NewRetriever(store)

	topic := &Topic{Name: "anemia", Markers: []string{"hemoglobin", "ferritin"}}
	set, err := r.Retrieve(1, TimeWindow{LatestOnly: true}, topic)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(set.All) != 3 {
		t.Fatalf("All = %d rows, want 3", len(set.All))
	}
	if len(set.Relevant) != 2 {
		t.Fatalf("Relevant = %d rows, want 2", len(set.Relevant))
	}
	for _, o := range set.Relevant {
		if o.Marker == "Glucose Fasting" {
			t.Fatalf("glucose leaked into anemia subset")
		}
	}
}
