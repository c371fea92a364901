package registry

import (
	"fmt"
	"sort"
)

// Ladder interpolation modes.
const (
	ModeStep   = "step"
	ModeLinear = "linear"
)

// LadderPoint is one control point of a threshold ladder.
type LadderPoint struct {
	Value         float64 `yaml:"value"`
	Score         float64 `yaml:"score"`
	Justification string  `yaml:"justification"`
}

// MetricLadder maps a raw metric into a [0,100] sub-score via ordered control
// points. Directionality lives in the scores themselves: a lower-is-better
// metric simply carries descending scores.
type MetricLadder struct {
	Metric string        `yaml:"metric"`
	Mode   string        `yaml:"mode"` // step | linear
	Points []LadderPoint `yaml:"points"`
}

func (l MetricLadder) validate() error {
	if l.Metric == "" {
		return fmt.Errorf("ladder with empty metric key")
	}
	if l.Mode != ModeStep && l.Mode != ModeLinear {
		return fmt.Errorf("ladder %s has unknown mode %q", l.Metric, l.Mode)
	}
	if len(l.Points) == 0 {
		return fmt.Errorf("ladder %s has no control points", l.Metric)
	}
	if !sort.SliceIsSorted(l.Points, func(i, j int) bool { return l.Points[i].Value < l.Points[j].Value }) {
		return fmt.Errorf("ladder %s control points are not ordered by value", l.Metric)
	}
	for _, p := range l.Points {
		if p.Score < 0 || p.Score > 100 {
			return fmt.Errorf("ladder %s has score %.1f outside [0,100] at value %.4f", l.Metric, p.Score, p.Value)
		}
	}
	return nil
}

// Evaluate maps a raw metric value through the ladder. Values below the first
// control point take the first score; values above the last take the last.
// Step mode snaps to the highest control point at or below the value; linear
// mode interpolates between the bracketing points.
func (l MetricLadder) Evaluate(value float64) (float64, string) {
	first := l.Points[0]
	last := l.Points[len(l.Points)-1]

	if value <= first.Value {
		return first.Score, first.Justification
	}
	if value >= last.Value {
		return last.Score, last.Justification
	}

	// Find the bracketing pair: lower is the highest point with Value <= value.
	lower := first
	upper := last
	for i := 1; i < len(l.Points); i++ {
		if l.Points[i].Value > value {
			lower = l.Points[i-1]
			upper = l.Points[i]
			break
		}
	}

	if l.Mode == ModeStep {
		return lower.Score, lower.Justification
	}

	span := upper.Value - lower.Value
	if span == 0 {
		return lower.Score, lower.Justification
	}
	frac := (value - lower.Value) / span
	score := lower.Score + frac*(upper.Score-lower.Score)
	return score, lower.Justification
}
