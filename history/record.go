// Package history keeps a bounded, newest-first list of past run summaries
// so the catalog can pick a provider without re-running the probe.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/hazyhaar/streamprobe/probe/result"
	"github.com/hazyhaar/streamprobe/provider"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("history: record not found")

// DefaultCapacity is the number of runs kept.
const DefaultCapacity = 10

// DefaultMinPlaybackRatio is the sampled ratio a provider needs to count as
// working.
const DefaultMinPlaybackRatio = 0.7

// Record is the compact summary of one run.
type Record struct {
	ID           string      `json:"id"`
	TestDate     string      `json:"testDate"`
	MediaType    string      `json:"mediaType"`
	MediaID      int         `json:"mediaId"`
	MediaTitle   string      `json:"mediaTitle"`
	TestDuration float64     `json:"testDuration"` // seconds
	BestProvider string      `json:"bestProvider"`
	BestQuality  string      `json:"bestQuality"`
	BestScore    float64     `json:"bestScore"`
	WorkingCount int         `json:"workingCount"`
	TotalCount   int         `json:"totalCount"`
	Results      []RecordRow `json:"results"`
}

// RecordRow is one provider of a recorded run.
type RecordRow struct {
	Rank     int           `json:"rank"`
	Name     string        `json:"name"`
	Status   result.Status `json:"status"`
	LoadTime *int64        `json:"loadTime"`
	Score    float64       `json:"score"`
}

// FromReport summarises a report. A provider is working when its sampled
// playback ratio reached minRatio (0 = DefaultMinPlaybackRatio).
func FromReport(id string, rep *result.RunReport, media provider.Media, took time.Duration, minRatio float64) Record {
	if minRatio <= 0 {
		minRatio = DefaultMinPlaybackRatio
	}
	rec := Record{
		ID:           id,
		TestDate:     rep.TestDate,
		MediaType:    rep.Options.MediaType,
		MediaID:      rep.Options.MediaID,
		MediaTitle:   media.Title,
		TestDuration: result.Round1(took.Seconds()),
		BestProvider: rep.BestProvider,
		BestQuality:  rep.BestProviderQuality,
		TotalCount:   len(rep.Results),
		Results:      make([]RecordRow, 0, len(rep.Results)),
	}
	if rec.MediaTitle == "" {
		rec.MediaTitle = media.String()
	}
	if len(rep.Results) > 0 {
		rec.BestScore = rep.Results[0].Score
	}
	for _, row := range rep.Results {
		if row.VideoPlaying && row.PlaybackRatio >= minRatio*100 {
			rec.WorkingCount++
		}
		rec.Results = append(rec.Results, RecordRow{
			Rank:     row.Rank,
			Name:     row.Name,
			Status:   row.Status,
			LoadTime: row.LoadTime,
			Score:    row.Score,
		})
	}
	return rec
}

// Store persists records newest first and never holds more than its
// capacity; appending to a full store evicts the oldest record.
type Store interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Close() error
}

// Latest returns the newest record for a media item.
func Latest(ctx context.Context, s Store, mediaType string, mediaID int) (Record, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return Record{}, err
	}
	for _, r := range recs {
		if r.MediaType == mediaType && r.MediaID == mediaID {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}
