package cluster

import "sync"

// trendWindow is how many recent scores feed the trend computation.
const trendWindow = 10

// Analyzer accumulates per-cluster score history and derives the trend
// snapshot BuildInsights consumes. Scores arrive asynchronously from
// the scoring pipeline, so all state is mutex-guarded.
type Analyzer struct {
	mu       sync.Mutex
	clusters map[string]*clusterState
}

type clusterState struct {
	progress Progress
	recent   []float64
	total    float64
}

// NewAnalyzer creates an empty Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{clusters: make(map[string]*clusterState)}
}

// Record folds one final score into the cluster's running state.
func (a *Analyzer) Record(clusterID, primarySkill string, totalExercises int, score float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.clusters[clusterID]
	if !ok {
		st = &clusterState{progress: Progress{
			ClusterID:    clusterID,
			PrimarySkill: primarySkill,
			Trend:        TrendNew,
		}}
		a.clusters[clusterID] = st
	}

	st.progress.Attempts++
	st.progress.TotalExercises = totalExercises
	st.total += score
	st.progress.AvgScore = st.total / float64(st.progress.Attempts)
	if score > st.progress.BestScore {
		st.progress.BestScore = score
	}

	st.recent = append(st.recent, score)
	if len(st.recent) > trendWindow {
		st.recent = st.recent[len(st.recent)-trendWindow:]
	}
	st.progress.Trend, st.progress.ImprovementRate = trendOf(st.recent)
}

// Snapshot returns a copy of every cluster's progress.
func (a *Analyzer) Snapshot() []Progress {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Progress, 0, len(a.clusters))
	for _, st := range a.clusters {
		out = append(out, st.progress)
	}
	return out
}

// trendOf compares the recent half of the window against the earlier
// half. Fewer than three scores is too little evidence to call a trend.
func trendOf(scores []float64) (Trend, float64) {
	if len(scores) < 3 {
		return TrendNew, 0
	}

	mid := len(scores) / 2
	earlier := mean(scores[:mid])
	recent := mean(scores[mid:])
	rate := recent - earlier

	switch {
	case rate > 2:
		return TrendImproving, rate
	case rate < -2:
		return TrendDeclining, rate
	default:
		return TrendStable, rate
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
