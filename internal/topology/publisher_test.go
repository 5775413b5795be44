package topology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/ccm-go/internal/core/domain"
)

func node(name, ip, dc string) domain.Node {
	return domain.Node{
		Name:       name,
		DataCenter: dc,
		Interfaces: domain.Interfaces{
			Storage: domain.Endpoint{Host: ip, Port: 7000},
			Thrift:  domain.Endpoint{Host: ip, Port: 9160},
		},
		JMXPort: 7199,
	}
}

func TestRender(t *testing.T) {
	nodes := []domain.Node{
		node("node1", "127.0.0.1", "dc1"),
		node("node2", "127.0.0.2", ""),
		node("node3", "127.0.0.3", "dc2"),
	}

	want := "default=dc1:r1\n127.0.0.1=dc1:r1\n127.0.0.3=dc2:r1\n"
	assert.Equal(t, want, string(Render(nodes)))
}

func TestRender_NoDataCenters(t *testing.T) {
	assert.Equal(t, "default=dc1:r1\n", string(Render([]domain.Node{node("node1", "127.0.0.1", "")})))
	assert.Equal(t, "default=dc1:r1\n", string(Render(nil)))
}

func TestPublish_IdenticalAndDeterministic(t *testing.T) {
	root := t.TempDir()
	p := NewPublisher(func(n domain.Node) string {
		return filepath.Join(root, n.Name, "conf")
	})
	nodes := []domain.Node{
		node("node1", "127.0.0.1", "dc1"),
		node("node2", "127.0.0.2", "dc1"),
		node("node3", "127.0.0.3", "dc2"),
	}

	require.NoError(t, p.Publish(nodes))
	first, err := os.ReadFile(filepath.Join(root, "node1", "conf", FileName))
	require.NoError(t, err)

	for _, n := range nodes {
		got, err := os.ReadFile(filepath.Join(root, n.Name, "conf", FileName))
		require.NoError(t, err)
		assert.Equal(t, first, got, "node %s", n.Name)
	}

	require.NoError(t, p.Publish(nodes))
	again, err := os.ReadFile(filepath.Join(root, "node2", "conf", FileName))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	entries, err := os.ReadDir(filepath.Join(root, "node1", "conf"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}
