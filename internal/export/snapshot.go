// Package export writes channel data to CSV and PNG sinks.
package export

import (
	"time"

	"github.com/x-itg/ocr/internal/orchestrator/series"
)

// TimeLayout is the CSV timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// Series is an immutable copy of one channel.
type Series struct {
	ID      int
	Name    string
	Color   series.Color
	Visible bool
	Times   []time.Time
	Values  []float64
}

func (s Series) Len() int { return len(s.Values) }

// Snapshot is what the sinks consume; it shares nothing with the live store.
type Snapshot struct {
	Series []Series
}

// ChannelSource is satisfied by *series.Store.
type ChannelSource interface {
	Channels() []*series.Channel
}

// SnapshotOf copies every channel out of src.
func SnapshotOf(src ChannelSource) Snapshot {
	chs := src.Channels()
	snap := Snapshot{Series: make([]Series, 0, len(chs))}
	for _, ch := range chs {
		snap.Series = append(snap.Series, Series{
			ID:      ch.ID,
			Name:    ch.Name,
			Color:   ch.Color,
			Visible: ch.Visible,
			Times:   append([]time.Time(nil), ch.Times...),
			Values:  append([]float64(nil), ch.Values...),
		})
	}
	return snap
}

// withData returns the series that have at least one sample.
func (s Snapshot) withData() []Series {
	var out []Series
	for _, sr := range s.Series {
		if sr.Len() > 0 {
			out = append(out, sr)
		}
	}
	return out
}

// Empty reports whether no series has any sample.
func (s Snapshot) Empty() bool { return len(s.withData()) == 0 }
