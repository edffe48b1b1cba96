// Package timefmt converts client supplied timestamps into the canonical
// local-time strings stored alongside items and history entries.
package timefmt

import (
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/formalin/internal/core/domain"
)

// Layout is the canonical storage format. Values in this layout sort
// lexicographically in chronological order.
const Layout = "2006-01-02 15:04:05"

// DefaultOffset is the fixed display offset (UTC+9).
const DefaultOffset = 9 * time.Hour

var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	Layout,
	"2006-01-02",
}

type Normalizer struct {
	loc *time.Location
}

func New(offset time.Duration) *Normalizer {
	name := fmt.Sprintf("UTC%+03d:%02d", int(offset.Hours()), int(offset.Minutes())%60)
	if offset < 0 {
		name = fmt.Sprintf("UTC-%02d:%02d", int(-offset.Hours()), int(-offset.Minutes())%60)
	}
	return &Normalizer{loc: time.FixedZone(name, int(offset.Seconds()))}
}

// Normalize reads input as UTC (unless it carries its own offset) and
// renders it in the normalizer's zone. Blank input yields nil.
func (n *Normalizer) Normalize(input string) (*string, error) {
	t, ok, err := parse(input)
	if err != nil || !ok {
		return nil, err
	}
	s := t.In(n.loc).Format(Layout)
	return &s, nil
}

// Canonical rewrites input into Layout keeping its wall clock.
func (n *Normalizer) Canonical(input string) (*string, error) {
	t, ok, err := parse(input)
	if err != nil || !ok {
		return nil, err
	}
	s := t.Format(Layout)
	return &s, nil
}

// Format renders t in the normalizer's zone.
func (n *Normalizer) Format(t time.Time) string {
	return t.In(n.loc).Format(Layout)
}

func (n *Normalizer) Location() *time.Location {
	return n.loc
}

func parse(input string) (time.Time, bool, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", domain.ErrInvalidTimestamp, input)
}
