package result

// Ratio cutoffs and scores. The table is the only definition of stream
// quality; rows are evaluated in order and the first match wins.
const (
	ExcellentRatio = 0.9
	GoodRatio      = 0.7
	FairRatio      = 0.5

	// PoorMinPlayback is the playback in seconds a sub-fair stream needs to
	// rate poor rather than failed.
	PoorMinPlayback = 5.0
)

// Sample is the measurement a classification is computed from.
type Sample struct {
	Ratio         float64
	ActualSeconds float64
	Stalls        int
}

// Classification is the scorer's verdict.
type Classification struct {
	Tier   Tier
	Score  float64
	Status Status
}

// Classify maps a completed sample to tier, score and status. Stalls are
// reported alongside but do not move the verdict.
func Classify(s Sample) Classification {
	switch {
	case s.Ratio >= ExcellentRatio:
		return Classification{TierExcellent, 100, StatusStreaming}
	case s.Ratio >= GoodRatio:
		return Classification{TierGood, 80, StatusStreaming}
	case s.Ratio >= FairRatio:
		return Classification{TierFair, 60, StatusBuffering}
	case s.ActualSeconds > PoorMinPlayback:
		return Classification{TierPoor, 40, StatusUnstable}
	default:
		return Classification{TierFailed, 10, StatusNotPlaying}
	}
}

// ClassifyNoVideo is the verdict when no video element was ever found.
func ClassifyNoVideo() Classification {
	return Classification{TierUnknown, 0, StatusNoVideo}
}
