package result

import (
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// TestDateLayout matches JavaScript's Date.toISOString, which the catalog
// UI parses.
const TestDateLayout = "2006-01-02T15:04:05.000Z"

// RunOptions echoes the inputs of a run.
type RunOptions struct {
	MediaType      string  `json:"mediaType"`
	MediaID        int     `json:"mediaId"`
	Season         int     `json:"season"`
	Episode        int     `json:"episode"`
	StreamDuration float64 `json:"streamDuration"` // seconds
}

// Summary counts results per tier. Failed counts every failure, including
// load failures, errors and pages without video.
type Summary struct {
	Total     int `json:"total"`
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
	Failed    int `json:"failed"`
}

// Row is one ranked provider in the persisted report.
type Row struct {
	Rank              int     `json:"rank"`
	Name              string  `json:"name"`
	Status            Status  `json:"status"`
	StreamQuality     Tier    `json:"streamQuality"`
	Score             float64 `json:"score"`
	LoadTime          *int64  `json:"loadTime"`         // ms
	ActualPlayback    float64 `json:"actualPlayback"`   // s, 1dp
	ExpectedPlayback  float64 `json:"expectedPlayback"` // s, 1dp
	PlaybackRatio     float64 `json:"playbackRatio"`    // percent, 1dp
	BufferingEvents   int     `json:"bufferingEvents"`
	HasVideo          bool    `json:"hasVideo"`
	VideoPlaying      bool    `json:"videoPlaying"`
	PlayButtonClicked bool    `json:"playButtonClicked"`
	Error             *string `json:"error"`
	URL               string  `json:"url"`
}

// RunReport is the persisted outcome of one run. Never mutated once built.
type RunReport struct {
	TestDate            string     `json:"testDate"`
	Options             RunOptions `json:"options"`
	Summary             Summary    `json:"summary"`
	BestProvider        string     `json:"bestProvider"`
	BestProviderQuality string     `json:"bestProviderQuality"`
	Results             []Row      `json:"results"`
}

// Summarize counts results per tier.
func Summarize(results []ProbeResult) Summary {
	byTier := func(t Tier) int {
		return lo.CountBy(results, func(r ProbeResult) bool { return r.Tier == t })
	}
	return Summary{
		Total:     len(results),
		Excellent: byTier(TierExcellent),
		Good:      byTier(TierGood),
		Fair:      byTier(TierFair),
		Poor:      byTier(TierPoor),
		Failed:    lo.CountBy(results, ProbeResult.Failure),
	}
}

// BuildReport ranks results and assembles the report.
func BuildReport(results []ProbeResult, opts RunOptions, testDate time.Time) *RunReport {
	ranked := Rank(results)

	rep := &RunReport{
		TestDate:            testDate.UTC().Format(TestDateLayout),
		Options:             opts,
		Summary:             Summarize(results),
		BestProvider:        "None",
		BestProviderQuality: "N/A",
		Results:             lo.Map(ranked, func(r ProbeResult, i int) Row { return toRow(r, i+1) }),
	}
	if len(ranked) > 0 {
		rep.BestProvider = ranked[0].TargetName
		rep.BestProviderQuality = string(ranked[0].Tier)
	}
	return rep
}

func toRow(r ProbeResult, rank int) Row {
	row := Row{
		Rank:              rank,
		Name:              r.TargetName,
		Status:            r.Status,
		StreamQuality:     r.Tier,
		Score:             r.Score,
		BufferingEvents:   r.StallCount,
		HasVideo:          r.HasVideoElement || r.HasIframe,
		VideoPlaying:      r.Playing(),
		PlayButtonClicked: r.PlayButtonClicked,
		URL:               r.ResolvedURL,
	}
	if r.LoadMeasured() {
		ms := r.LoadDurationMs()
		row.LoadTime = &ms
	}
	if r.Sampled {
		row.ActualPlayback = Round1(r.ActualPlaybackSeconds)
		row.ExpectedPlayback = Round1(r.ExpectedPlaybackSeconds)
		row.PlaybackRatio = Round1(r.PlaybackRatio * 100)
	}
	if r.Error != "" {
		msg := r.Error
		row.Error = &msg
	}
	return row
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Top returns the best rows scoring at least minScore, at most n of them.
func (r *RunReport) Top(minScore float64, n int) []Row {
	rows := lo.Filter(r.Results, func(row Row, _ int) bool { return row.Score >= minScore })
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// MarshalReport encodes a report as indented JSON.
func MarshalReport(r *RunReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// UnmarshalReport decodes a report.
func UnmarshalReport(data []byte) (*RunReport, error) {
	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
