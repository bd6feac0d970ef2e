package observability_test

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/observability"
)

var _ encounter.Recorder = (*observability.Metrics)(nil)

func newMetrics(t *testing.T) (*observability.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return observability.NewMetrics(config.MetricsConfig{Enabled: true, Namespace: "test"}, reg), reg
}

func TestMetrics_CountsActionsByLabel(t *testing.T) {
	m, reg := newMetrics(t)
	m.ActionResolved("attack", "hit")
	m.ActionResolved("attack", "hit")
	m.ActionResolved("spell", "auto hit")

	n, err := testutil.GatherAndCount(reg, "test_actions_resolved_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetrics_EncounterFinished(t *testing.T) {
	m, reg := newMetrics(t)
	m.EncounterFinished("victory")

	n, err := testutil.GatherAndCount(reg, "test_encounters_finished_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_TurnDurationObserved(t *testing.T) {
	m, reg := newMetrics(t)
	m.TurnExecuted("hostile", 2*time.Millisecond)

	n, err := testutil.GatherAndCount(reg, "test_turn_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_HandlerServesText(t *testing.T) {
	m, _ := newMetrics(t)
	m.ActionResolved("attack", "miss")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_actions_resolved_total{kind="attack",outcome="miss"} 1`)
}

func TestPropertyMetrics_CounterMatchesCalls(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := prometheus.NewRegistry()
		m := observability.NewMetrics(config.MetricsConfig{Enabled: true, Namespace: "prop"}, reg)
		calls := rapid.IntRange(1, 50).Draw(rt, "calls")
		for range calls {
			m.EncounterFinished("defeat")
		}
		want := fmt.Sprintf("# HELP prop_encounters_finished_total Finished encounters by outcome\n"+
			"# TYPE prop_encounters_finished_total counter\n"+
			"prop_encounters_finished_total{outcome=\"defeat\"} %d\n", calls)
		if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "prop_encounters_finished_total"); err != nil {
			rt.Fatal(err)
		}
	})
}
