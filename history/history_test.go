package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/streamprobe/dbopen"
	"github.com/hazyhaar/streamprobe/idgen"
	"github.com/hazyhaar/streamprobe/probe/result"
	"github.com/hazyhaar/streamprobe/provider"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	s, err := NewSQLite(dbopen.OpenMemory(t), 3)
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"memory": NewMemory(3),
		"sqlite": s,
	}
}

func rec(id string, mediaID int) Record {
	return Record{ID: id, TestDate: "2025-12-01T12:00:00.000Z", MediaType: "movie", MediaID: mediaID, BestProvider: "VidLink"}
}

func ids(recs []Record) string {
	out := ""
	for _, r := range recs {
		out += r.ID + " "
	}
	return out
}

func TestStore_BoundedNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 1; i <= 5; i++ {
				if err := s.Append(ctx, rec(fmt.Sprintf("r%d", i), i)); err != nil {
					t.Fatalf("Append: %v", err)
				}
				got, err := s.List(ctx)
				if err != nil {
					t.Fatal(err)
				}
				if len(got) > 3 {
					t.Fatalf("len = %d after %d appends", len(got), i)
				}
				if got[0].ID != fmt.Sprintf("r%d", i) {
					t.Fatalf("newest = %s", got[0].ID)
				}
			}
			got, _ := s.List(ctx)
			if ids(got) != "r5 r4 r3 " {
				t.Fatalf("list = %q", ids(got))
			}
			if _, err := s.Get(ctx, "r1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("evicted record: err = %v", err)
			}
		})
	}
}

func TestStore_GetDeleteClear(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"a", "b", "c"} {
				if err := s.Append(ctx, rec(id, 1)); err != nil {
					t.Fatal(err)
				}
			}
			r, err := s.Get(ctx, "b")
			if err != nil || r.ID != "b" || r.BestProvider != "VidLink" {
				t.Fatalf("Get = %+v, %v", r, err)
			}
			if err := s.Delete(ctx, "b"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := s.Delete(ctx, "b"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("second Delete: err = %v", err)
			}
			got, _ := s.List(ctx)
			if ids(got) != "c a " {
				t.Fatalf("list = %q", ids(got))
			}
			if err := s.Clear(ctx); err != nil {
				t.Fatal(err)
			}
			got, _ = s.List(ctx)
			if len(got) != 0 {
				t.Fatalf("after Clear: %d records", len(got))
			}
		})
	}
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Append(ctx, rec("old", 42))
			s.Append(ctx, rec("other", 7))
			s.Append(ctx, rec("new", 42))
			r, err := Latest(ctx, s, "movie", 42)
			if err != nil || r.ID != "new" {
				t.Fatalf("Latest = %s, %v", r.ID, err)
			}
			if _, err := Latest(ctx, s, "tv", 42); !errors.Is(err, ErrNotFound) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestOpenSQLite_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "history.db")
	s, err := OpenSQLite(path, 10)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	want := rec(idgen.New(), 27205)
	ms := int64(1234)
	want.Results = []RecordRow{{Rank: 1, Name: "VidLink", Status: result.StatusStreaming, LoadTime: &ms, Score: 100}}
	if err := s.Append(ctx, want); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Results) != 1 || *got.Results[0].LoadTime != 1234 || got.Results[0].Status != result.StatusStreaming {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestFromReport(t *testing.T) {
	mk := func(name string, ratio, sampledRatio float64) result.ProbeResult {
		r := result.New(0, name, "https://"+name)
		r.LoadDuration = time.Second
		r.Sampled = true
		r.ActualPlaybackSeconds = sampledRatio * 120
		r.ExpectedPlaybackSeconds = 120
		r.PlaybackRatio = sampledRatio
		r.Apply(result.Classify(result.Sample{Ratio: ratio, ActualSeconds: sampledRatio * 120}))
		return r
	}
	nv := result.New(3, "Dead", "https://dead")
	nv.Apply(result.ClassifyNoVideo())

	results := []result.ProbeResult{
		mk("Fair", 0.6, 0.6),
		mk("Good", 0.75, 0.75),
		mk("Best", 0.95, 0.95),
		nv,
	}
	media := provider.Media{Type: provider.Movie, ID: 27205, Title: "Inception"}
	rep := result.BuildReport(results, result.RunOptions{MediaType: "movie", MediaID: 27205, StreamDuration: 120}, time.Now())

	r := FromReport("id1", rep, media, 251*time.Second+340*time.Millisecond, 0)
	if r.BestProvider != "Best" || r.BestScore != 100 {
		t.Fatalf("best = %s %v", r.BestProvider, r.BestScore)
	}
	if r.WorkingCount != 2 || r.TotalCount != 4 {
		t.Fatalf("working = %d/%d", r.WorkingCount, r.TotalCount)
	}
	if r.TestDuration != 251.3 || r.MediaTitle != "Inception" || r.MediaID != 27205 {
		t.Fatalf("record = %+v", r)
	}
	if r.Results[0].Rank != 1 || r.Results[3].Name != "Dead" || r.Results[3].LoadTime != nil {
		t.Fatalf("rows = %+v", r.Results)
	}

	if got := FromReport("id2", rep, media, 0, 0.5).WorkingCount; got != 3 {
		t.Fatalf("working at 0.5 = %d", got)
	}
}

func TestFromReport_Empty(t *testing.T) {
	rep := result.BuildReport(nil, result.RunOptions{MediaType: "tv", MediaID: 1}, time.Now())
	r := FromReport("x", rep, provider.Media{Type: provider.TV, ID: 1}, 0, 0)
	if r.BestProvider != "None" || r.BestScore != 0 || r.TotalCount != 0 || r.MediaTitle != "tv/1" {
		t.Fatalf("record = %+v", r)
	}
}
