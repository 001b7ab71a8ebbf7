package tradesim

import "slices"

// DefaultRetention is the number of samples kept by a Recorder.
const DefaultRetention = 100

// HistoryPoint is a sample of the total portfolio value.
type HistoryPoint struct {
	Label string `json:"name"` // typically the sampling time
	Value Money  `json:"value"`
}

// Recorder keeps the most recent samples of the total portfolio value, in
// sampling order.
type Recorder struct {
	retention int
	points    []HistoryPoint
}

// NewRecorder creates a Recorder keeping at most retention samples.
// A retention <= 0 means DefaultRetention.
func NewRecorder(retention int) *Recorder {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Recorder{retention: retention, points: make([]HistoryPoint, 0, retention)}
}

// Sample appends a point, dropping the oldest ones beyond the retention.
func (r *Recorder) Sample(label string, value Money) {
	r.points = append(r.points, HistoryPoint{Label: label, Value: value})
	if over := len(r.points) - r.retention; over > 0 {
		r.points = slices.Delete(r.points, 0, over)
	}
}

// Points returns a copy of the samples, oldest first.
func (r *Recorder) Points() []HistoryPoint { return slices.Clone(r.points) }

// Len returns the number of samples.
func (r *Recorder) Len() int { return len(r.points) }

// Retention returns the maximum number of samples kept.
func (r *Recorder) Retention() int { return r.retention }

// Reset drops all samples.
func (r *Recorder) Reset() { r.points = r.points[:0] }
