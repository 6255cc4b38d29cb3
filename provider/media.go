package provider

import (
	"fmt"
	"strings"
)

// MediaType selects the embed URL shape.
type MediaType string

const (
	Movie MediaType = "movie"
	TV    MediaType = "tv"
)

// ParseMediaType accepts "movie" or "tv", case-insensitively.
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case Movie:
		return Movie, nil
	case TV:
		return TV, nil
	}
	return "", fmt.Errorf("provider: unknown media type %q (want movie or tv)", s)
}

// Media identifies what every target is asked to play during a run. IDs
// are TMDB identifiers supplied by the operator.
type Media struct {
	Type    MediaType
	ID      int
	Season  int
	Episode int
	Title   string
}

// Episodic reports whether the TV URL shape applies.
func (m Media) Episodic() bool {
	return m.Type == TV && m.Season > 0 && m.Episode > 0
}

// Validate rejects media the registry cannot build URLs for.
func (m Media) Validate() error {
	if m.Type != Movie && m.Type != TV {
		return fmt.Errorf("provider: unknown media type %q", m.Type)
	}
	if m.ID <= 0 {
		return fmt.Errorf("provider: media id must be positive, got %d", m.ID)
	}
	if m.Type == TV && (m.Season < 0 || m.Episode < 0) {
		return fmt.Errorf("provider: negative season/episode")
	}
	return nil
}

func (m Media) String() string {
	if m.Episodic() {
		return fmt.Sprintf("tv/%d S%02dE%02d", m.ID, m.Season, m.Episode)
	}
	return fmt.Sprintf("%s/%d", m.Type, m.ID)
}
