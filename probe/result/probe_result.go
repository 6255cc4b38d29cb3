package result

import "time"

// ProbeResult is the record of one probe against one target. It is owned
// by the executor running the probe and must not be mutated once returned.
type ProbeResult struct {
	Index       int    `json:"index"`
	TargetName  string `json:"name"`
	ResolvedURL string `json:"url"`

	LoadStartedAt   time.Time     `json:"loadStartedAt"`
	LoadCompletedAt *time.Time    `json:"loadCompletedAt"` // nil when navigation timed out or failed
	LoadDuration    time.Duration `json:"loadDuration"`

	HasVideoElement   bool   `json:"hasVideoElement"`
	HasIframe         bool   `json:"hasIframe"`
	HasPlayButton     bool   `json:"hasPlayButton"`
	PlayButtonClicked bool   `json:"playButtonClicked"`
	PlaySelector      string `json:"playSelector,omitempty"` // empty when the center-click fallback was used

	// Sampled is set once the streaming-sample phase ran; the playback
	// fields below are meaningless otherwise.
	Sampled                 bool      `json:"sampled"`
	SampleStartedAt         time.Time `json:"sampleStartedAt"`
	SampleEndedAt           time.Time `json:"sampleEndedAt"`
	VideoTimeAtStart        float64   `json:"videoTimeAtStart"`
	VideoTimeAtEnd          float64   `json:"videoTimeAtEnd"`
	StallCount              int       `json:"stallCount"`
	ActualPlaybackSeconds   float64   `json:"actualPlayback"`
	ExpectedPlaybackSeconds float64   `json:"expectedPlayback"`
	PlaybackRatio           float64   `json:"playbackRatio"`

	Tier   Tier    `json:"streamQuality"`
	Score  float64 `json:"score"`
	Status Status  `json:"status"`
	Error  string  `json:"error,omitempty"`

	BlockedRequests int `json:"blockedRequests"`
}

// New returns a pending result for a target.
func New(index int, name, url string) ProbeResult {
	return ProbeResult{
		Index:       index,
		TargetName:  name,
		ResolvedURL: url,
		Tier:        TierUnknown,
		Status:      StatusPending,
	}
}

// LoadDurationMs returns the navigation duration in milliseconds.
func (r ProbeResult) LoadDurationMs() int64 {
	return r.LoadDuration.Milliseconds()
}

// LoadMeasured reports whether the load phase finished, either complete or
// cut short by the navigation timeout.
func (r ProbeResult) LoadMeasured() bool {
	return r.LoadDuration > 0 && r.Status != StatusLoadFailed
}

// Apply copies a classification onto the result.
func (r *ProbeResult) Apply(c Classification) {
	r.Tier = c.Tier
	r.Score = c.Score
	r.Status = c.Status
}

// Fail marks the result terminal with an error message.
func (r *ProbeResult) Fail(status Status, msg string) {
	r.Status = status
	r.Error = msg
}

// Playing reports whether playback was observed at any tier above failed.
func (r ProbeResult) Playing() bool {
	switch r.Tier {
	case TierExcellent, TierGood, TierFair, TierPoor:
		return true
	}
	return false
}

// Failure reports whether the result counts as a failed provider.
func (r ProbeResult) Failure() bool {
	switch r.Status {
	case StatusNoVideo, StatusError, StatusLoadFailed:
		return true
	}
	return r.Tier == TierFailed
}
