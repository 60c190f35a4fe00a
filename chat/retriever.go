package chat

import (
	"strings"
	"time"

	"famhealth-backend/records"
)

// ObservationStore is the read side of the lab-data store the pipeline needs.
// *records.Repository satisfies it.
type ObservationStore interface {
	FindObservations(memberID int, from, to time.Time) ([]records.Observation, error)
	LatestObservations(memberID, limit int) ([]records.Observation, error)
	CountAll(memberID int) (int, error)
}

// How many rows "latest/recent" questions pull.
const defaultLatestLimit = 10

// ObservationSet is the retrieval result. All is chronological (oldest
// first). Relevant is the topic-filtered subset, empty when no topic was
// detected. TotalEver distinguishes "no data in window" from "no data ever".
type ObservationSet struct {
	All       []records.Observation
	Relevant  []records.Observation
	TotalEver int
}

type Retriever struct {
	store       ObservationStore
	latestLimit int
}

func NewRetriever(store ObservationStore) *Retriever {
	return &Retriever{store: store, latestLimit: defaultLatestLimit}
}

func (r *Retriever) Retrieve(memberID int, win TimeWindow, topic *Topic) (*ObservationSet, error) {
	var (
		obs []records.Observation
		err error
	)
	if win.LatestOnly {
		obs, err = r.store.LatestObservations(memberID, r.latestLimit)
	} else {
		obs, err = r.store.FindObservations(memberID, win.From, win.To)
	}
	if err != nil {
		return nil, err
	}
	total, err := r.store.CountAll(memberID)
	if err != nil {
		return nil, err
	}
	set := &ObservationSet{All: obs, TotalEver: total}
	if topic != nil {
		for _, o := range obs {
			if markerMatchesTopic(o.Marker, topic) {
				set.Relevant = append(set.Relevant, o)
			}
		}
	}
	return set, nil
}

func markerMatchesTopic(marker string, topic *Topic) bool {
	m := strings.ToLower(marker)
	for _, kw := range topic.Markers {
		if strings.Contains(m, kw) {
			return true
		}
	}
	return false
}
