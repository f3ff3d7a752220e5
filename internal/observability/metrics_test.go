package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsAreIsolated(t *testing.T) {
	a := NewMetrics("")
	b := NewMetrics("")

	a.PairsEvaluated.WithLabelValues("significant").Add(3)

	assert.Equal(t, 3.0, testutil.ToFloat64(a.PairsEvaluated.WithLabelValues("significant")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PairsEvaluated.WithLabelValues("significant")))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics("test")
	m.BacktestDays.Add(250)
	m.FinalValue.WithLabelValues("AAA/BBB").Set(101234.5)

	path := filepath.Join(t.TempDir(), "pairlab.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "test_backtest_days_simulated_total 250"))
	assert.Contains(t, text, `test_backtest_final_value{pair="AAA/BBB"} 101234.5`)
}

func TestWriteTextfileBadPath(t *testing.T) {
	m := NewMetrics("")
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
