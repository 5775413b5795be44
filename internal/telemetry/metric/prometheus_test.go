package metric

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	r.NodesLaunched.Add(3)
	r.StartFailures.WithLabelValues(PhaseAliveness).Inc()
	r.NodesStopped.WithLabelValues("gently").Inc()
	r.ObserveStart("ready", 1500*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.NodesLaunched))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.StartFailures.WithLabelValues(PhaseAliveness)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.NodesStopped.WithLabelValues("gently")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.StartDuration))
}

func TestRegistry_WriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.NodesPopulated.Add(5)

	path := filepath.Join(t.TempDir(), "ccm.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ccm_node_populated_total 5")
}

func TestNodeCollector(t *testing.T) {
	nodes := []NodeStatus{
		{Name: "node1", DataCenter: "dc1", Up: true},
		{Name: "node2", DataCenter: "dc2", Up: false},
	}
	c := NewNodeCollector("test", func() []NodeStatus { return nodes })

	expected := `
# HELP ccm_node_up Whether the node process is running (1) or not (0).
# TYPE ccm_node_up gauge
ccm_node_up{cluster="test",dc="dc1",node="node1"} 1
ccm_node_up{cluster="test",dc="dc2",node="node2"} 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))

	r := NewRegistry()
	r.MustRegister(c)
	n, err := testutil.GatherAndCount(r.Gatherer(), "ccm_node_up")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
