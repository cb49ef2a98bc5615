// Package textgrid builds Praat TextGrid annotation documents from timed
// transcript segments and writes them in the long text format.
//
// A document has one interval tier. The last interval always ends at the
// media duration, whatever the recognizer reported for the final segment:
//
//	doc, err := textgrid.Assemble(resp.Segments, duration)
//	out := doc.String()
package textgrid

import (
	"fmt"
	"math"
	"strings"

	"github.com/kbukum/asrkit/transcription"
	"github.com/kbukum/asrkit/validation"
)

// DefaultTierName names the tier when no option overrides it.
const DefaultTierName = "whisper"

// Document is a TextGrid.
type Document struct {
	XMin  float64 `json:"xmin"`
	XMax  float64 `json:"xmax"`
	Tiers []Tier  `json:"tiers"`
}

// Tier is a named interval tier.
type Tier struct {
	Name      string     `json:"name"`
	XMin      float64    `json:"xmin"`
	XMax      float64    `json:"xmax"`
	Intervals []Interval `json:"intervals"`
}

// Interval is one annotated span. Its index is its 1-based position in the
// tier.
type Interval struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	Text string  `json:"text"`
}

type options struct {
	tierName string
}

// Option configures Assemble.
type Option func(*options)

// WithTierName sets the tier name. Blank names keep the default.
func WithTierName(name string) Option {
	return func(o *options) {
		if strings.TrimSpace(name) != "" {
			o.tierName = name
		}
	}
}

// Assemble builds a single-tier document from segments. The last segment's
// end is replaced by totalDuration; every other boundary passes through.
// Text is trimmed. Invalid input yields an INVALID_INPUT error listing each
// problem.
func Assemble(segments []transcription.Segment, totalDuration float64, opts ...Option) (*Document, error) {
	o := options{tierName: DefaultTierName}
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateInput(segments, totalDuration); err != nil {
		return nil, err
	}

	intervals := make([]Interval, len(segments))
	for i, seg := range segments {
		intervals[i] = Interval{XMin: seg.Start, XMax: seg.End, Text: strings.TrimSpace(seg.Text)}
	}
	intervals[len(intervals)-1].XMax = totalDuration

	return &Document{
		XMin: 0,
		XMax: totalDuration,
		Tiers: []Tier{{
			Name:      o.tierName,
			XMin:      0,
			XMax:      totalDuration,
			Intervals: intervals,
		}},
	}, nil
}

func validateInput(segments []transcription.Segment, totalDuration float64) error {
	v := validation.New()
	v.Custom(len(segments) > 0, "segments", "must not be empty")
	v.Custom(finite(totalDuration) && totalDuration >= 0, "duration", "must be a finite number >= 0")

	last := len(segments) - 1
	for i, seg := range segments {
		field := fmt.Sprintf("segments[%d]", i)
		v.Custom(finite(seg.Start) && seg.Start >= 0, field+".start", "must be a finite number >= 0")
		if i == last {
			v.Custom(!finite(totalDuration) || seg.Start <= totalDuration, field+".start", "must not exceed the duration")
			continue
		}
		v.Custom(finite(seg.End) && seg.End >= seg.Start, field+".end", "must be a finite number >= start")
		v.Custom(!finite(seg.End) || !finite(totalDuration) || seg.End <= totalDuration, field+".end", "must not exceed the duration")
	}
	return v.Validate()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Render assembles segments and returns the encoded document.
func Render(segments []transcription.Segment, totalDuration float64, opts ...Option) (string, error) {
	doc, err := Assemble(segments, totalDuration, opts...)
	if err != nil {
		return "", err
	}
	return doc.String(), nil
}

// IntervalCount returns the number of intervals across all tiers.
func (d *Document) IntervalCount() int {
	n := 0
	for _, t := range d.Tiers {
		n += len(t.Intervals)
	}
	return n
}
