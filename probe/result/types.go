// Package result defines the data a probe run produces: per-provider
// ProbeResults, their quality classification, ranking, and the RunReport
// persisted for the catalog UI.
package result

// Status is the outcome of one probe.
type Status string

const (
	StatusPending    Status = "pending"
	StatusLoaded     Status = "loaded"
	StatusLoadFailed Status = "load_failed"
	StatusNoVideo    Status = "no_video"
	StatusStreaming  Status = "streaming"
	StatusBuffering  Status = "buffering"
	StatusUnstable   Status = "unstable"
	StatusNotPlaying Status = "not_playing"
	StatusError      Status = "error"
)

// Terminal reports whether a probe may end in this status. pending and
// loaded are transient.
func (s Status) Terminal() bool {
	switch s {
	case StatusLoadFailed, StatusNoVideo, StatusStreaming, StatusBuffering,
		StatusUnstable, StatusNotPlaying, StatusError:
		return true
	}
	return false
}

// Tier is the stream quality class.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
	TierFailed    Tier = "failed"
	TierUnknown   Tier = "unknown"
)

// Tiers lists every tier from best to worst.
var Tiers = []Tier{TierExcellent, TierGood, TierFair, TierPoor, TierFailed, TierUnknown}

// VideoState is one reading of the first <video> element on a page.
type VideoState struct {
	Found       bool    `json:"found"`
	CurrentTime float64 `json:"currentTime"`
	Paused      bool    `json:"paused"`
	Ended       bool    `json:"ended"`
	ReadyState  int     `json:"readyState"`
	Duration    float64 `json:"duration"`
}

// Advancing is true when the player claims to be playing.
func (v VideoState) Advancing() bool {
	return v.Found && !v.Paused && !v.Ended
}

// MediaPresence is what the detection phase saw on the page.
type MediaPresence struct {
	Videos  int
	Iframes int
}

// Any reports whether a video or an iframe was present.
func (m MediaPresence) Any() bool { return m.Videos > 0 || m.Iframes > 0 }
