package result

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func scored(name string, score float64, load time.Duration) ProbeResult {
	r := New(0, name, "https://"+name)
	r.Score = score
	r.LoadDuration = load
	r.Status = StatusStreaming
	return r
}

func TestRank_ScoreThenLoadTime(t *testing.T) {
	in := []ProbeResult{
		scored("a", 80, 500*time.Millisecond),
		scored("b", 100, 200*time.Millisecond),
		scored("c", 80, 300*time.Millisecond),
	}
	got := Rank(in)
	want := []string{"b", "c", "a"}
	for i, w := range want {
		if got[i].TargetName != w {
			t.Fatalf("Rank[%d] = %s, want %s (full %v)", i, got[i].TargetName, w, names(got))
		}
	}
	if in[0].TargetName != "a" {
		t.Fatal("Rank modified its input")
	}
}

func TestRank_StableOnFullTies(t *testing.T) {
	in := []ProbeResult{
		scored("x", 60, 100*time.Millisecond),
		scored("y", 60, 100*time.Millisecond),
		scored("z", 60, 100*time.Millisecond),
	}
	got := names(Rank(in))
	if strings.Join(got, ",") != "x,y,z" {
		t.Fatalf("Rank not stable: %v", got)
	}
}

func TestRank_UnmeasuredLoadSortsLast(t *testing.T) {
	failed := New(0, "failed", "")
	failed.Status = StatusLoadFailed
	errored := New(1, "errored", "")
	errored.Status = StatusError
	nv := scored("novideo", 0, 900*time.Millisecond)
	nv.Status = StatusNoVideo

	got := names(Rank([]ProbeResult{failed, errored, nv}))
	if strings.Join(got, ",") != "novideo,failed,errored" {
		t.Fatalf("got %v", got)
	}
}

func names(rs []ProbeResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.TargetName
	}
	return out
}

func TestBuildReport(t *testing.T) {
	good := scored("Good", 80, 1234*time.Millisecond)
	good.Tier = TierGood
	good.Sampled = true
	good.HasVideoElement = true
	good.PlayButtonClicked = true
	good.ActualPlaybackSeconds = 91.26
	good.ExpectedPlaybackSeconds = 120.04
	good.PlaybackRatio = 91.26 / 120.04
	good.StallCount = 2

	failed := New(1, "Broken", "https://broken")
	failed.Fail(StatusLoadFailed, "navigation failed: net::ERR_NAME_NOT_RESOLVED")

	nv := scored("Empty", 0, 2*time.Second)
	nv.Apply(ClassifyNoVideo())
	nv.HasIframe = true

	date := time.Date(2025, 12, 1, 10, 30, 0, 123_000_000, time.FixedZone("CET", 3600))
	rep := BuildReport([]ProbeResult{failed, good, nv}, RunOptions{MediaType: "movie", MediaID: 27205, Season: 1, Episode: 1, StreamDuration: 120}, date)

	if rep.TestDate != "2025-12-01T09:30:00.123Z" {
		t.Errorf("TestDate = %q", rep.TestDate)
	}
	if rep.BestProvider != "Good" || rep.BestProviderQuality != "good" {
		t.Errorf("best = %s/%s", rep.BestProvider, rep.BestProviderQuality)
	}
	wantSummary := Summary{Total: 3, Good: 1, Failed: 2}
	if rep.Summary != wantSummary {
		t.Errorf("Summary = %+v, want %+v", rep.Summary, wantSummary)
	}

	row := rep.Results[0]
	if row.Rank != 1 || row.Name != "Good" {
		t.Fatalf("row0 = %+v", row)
	}
	if row.ActualPlayback != 91.3 || row.ExpectedPlayback != 120 || row.PlaybackRatio != 76 {
		t.Errorf("row0 playback = %v/%v/%v", row.ActualPlayback, row.ExpectedPlayback, row.PlaybackRatio)
	}
	if row.LoadTime == nil || *row.LoadTime != 1234 {
		t.Errorf("row0 loadTime = %v", row.LoadTime)
	}
	if !row.VideoPlaying || !row.HasVideo || row.BufferingEvents != 2 || row.Error != nil {
		t.Errorf("row0 flags = %+v", row)
	}

	if rep.Results[1].Name != "Empty" || !rep.Results[1].HasVideo || rep.Results[1].VideoPlaying {
		t.Errorf("row1 = %+v", rep.Results[1])
	}
	last := rep.Results[2]
	if last.Name != "Broken" || last.LoadTime != nil || last.Error == nil {
		t.Errorf("row2 = %+v", last)
	}
}

func TestBuildReport_Empty(t *testing.T) {
	rep := BuildReport(nil, RunOptions{MediaType: "movie", MediaID: 1}, time.Unix(0, 0))
	if rep.BestProvider != "None" || rep.BestProviderQuality != "N/A" {
		t.Fatalf("best = %s/%s", rep.BestProvider, rep.BestProviderQuality)
	}
	if rep.Summary.Total != 0 || len(rep.Results) != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestMarshalReport_Schema(t *testing.T) {
	r := scored("P", 100, time.Second)
	r.Tier = TierExcellent
	rep := BuildReport([]ProbeResult{r}, RunOptions{MediaType: "tv", MediaID: 1396, Season: 1, Episode: 1, StreamDuration: 60}, time.Unix(0, 0))
	data, err := MarshalReport(rep)
	if err != nil {
		t.Fatal(err)
	}

	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"testDate", "options", "summary", "bestProvider", "bestProviderQuality", "results"} {
		if _, ok := generic[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	rows := generic["results"].([]any)
	row := rows[0].(map[string]any)
	for _, key := range []string{"rank", "name", "status", "streamQuality", "score", "loadTime",
		"actualPlayback", "expectedPlayback", "playbackRatio", "bufferingEvents", "hasVideo",
		"videoPlaying", "playButtonClicked", "error", "url"} {
		if _, ok := row[key]; !ok {
			t.Errorf("row missing key %q", key)
		}
	}
	if row["error"] != nil {
		t.Errorf("error = %v, want null", row["error"])
	}

	back, err := UnmarshalReport(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.Options.StreamDuration != 60 || back.Results[0].Name != "P" {
		t.Fatalf("decoded = %+v", back)
	}
}

func TestTop(t *testing.T) {
	rep := &RunReport{Results: []Row{{Name: "a", Score: 100}, {Name: "b", Score: 80}, {Name: "c", Score: 60}, {Name: "d", Score: 40}}}
	top := rep.Top(60, 2)
	if len(top) != 2 || top[0].Name != "a" || top[1].Name != "b" {
		t.Fatalf("Top = %+v", top)
	}
	if got := rep.Top(60, 10); len(got) != 3 {
		t.Fatalf("Top(60,10) = %d rows", len(got))
	}
}
