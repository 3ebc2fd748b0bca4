package metrics

import (
	"testing"
	"time"

	"desirefinder-be/pkg/agent/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gathered returns metric family name -> label signature -> value.
func gathered(t *testing.T, m *Metrics) map[string]map[string]float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	out := make(map[string]map[string]float64)
	for _, f := range families {
		values := make(map[string]float64)
		for _, metric := range f.GetMetric() {
			key := ""
			for _, lp := range metric.GetLabel() {
				key += lp.GetName() + "=" + lp.GetValue() + ","
			}
			switch {
			case metric.GetCounter() != nil:
				values[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[key] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				values[key] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
		out[f.GetName()] = values
	}
	return out
}

func TestMetrics_Observers(t *testing.T) {
	m := New()

	m.TurnFinished(orchestrator.StateCompleted, "", 3*time.Second)
	m.TurnFinished(orchestrator.StateFailed, orchestrator.StateClassifying, time.Second)
	m.StageCount("quality", 12)
	m.StageCount("quality", 3)
	m.VisionVerdict("accepted")
	m.SourceError("cj")
	m.RevalidationOutcome("drift")

	got := gathered(t, m)
	assert.Equal(t, 1.0, got["desirefinder_turns_total"]["failed_in=none,outcome=COMPLETED,"])
	assert.Equal(t, 1.0, got["desirefinder_turns_total"]["failed_in=CLASSIFYING,outcome=FAILED,"])
	assert.Equal(t, 1.0, got["desirefinder_turn_duration_seconds"]["outcome=COMPLETED,"])
	assert.Equal(t, 15.0, got["desirefinder_funnel_candidates_total"]["stage=quality,"])
	assert.Equal(t, 1.0, got["desirefinder_vision_verdicts_total"]["verdict=accepted,"])
	assert.Equal(t, 1.0, got["desirefinder_supplier_errors_total"]["source=cj,"])
	assert.Equal(t, 1.0, got["desirefinder_revalidations_total"]["outcome=drift,"])
}

func TestMetrics_LiveSessionsGauge(t *testing.T) {
	m := New()
	live := 4
	m.TrackLiveSessions(func() int { return live })

	assert.Equal(t, 4.0, gathered(t, m)["desirefinder_live_sessions"][""])

	live = 1
	assert.Equal(t, 1.0, gathered(t, m)["desirefinder_live_sessions"][""])
}
