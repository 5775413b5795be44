package topology

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/process"
)

const (
	// FileName is the topology file written into each node's conf dir.
	FileName = "cassandra-topology.properties"

	// FallbackDataCenter is assigned to addresses not listed explicitly.
	FallbackDataCenter = "dc1"

	// Rack is the single rack every entry is placed in.
	Rack = "r1"
)

// Publisher writes the topology file for a set of nodes.
type Publisher struct {
	// ConfDir returns the configuration directory of a node.
	ConfDir func(domain.Node) string
}

// NewPublisher creates a publisher writing into the directories returned
// by confDir.
func NewPublisher(confDir func(domain.Node) string) *Publisher {
	return &Publisher{ConfDir: confDir}
}

// Render builds the topology file content. The first line is always the
// default entry; nodes follow in the given order and nodes without a
// datacenter are omitted.
func Render(nodes []domain.Node) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "default=%s:%s\n", FallbackDataCenter, Rack)
	for _, n := range nodes {
		if n.DataCenter == "" {
			continue
		}
		fmt.Fprintf(&buf, "%s=%s:%s\n", n.Address(), n.DataCenter, Rack)
	}
	return buf.Bytes()
}

// Publish writes the same rendered table to every node.
func (p *Publisher) Publish(nodes []domain.Node) error {
	content := Render(nodes)
	for _, n := range nodes {
		dir := p.ConfDir(n)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.ErrStorage.WithDetailsf("topology for %s", n.Name).WithCause(err)
		}
		if err := process.WriteFileAtomic(filepath.Join(dir, FileName), content); err != nil {
			return domain.ErrStorage.WithDetailsf("topology for %s", n.Name).WithCause(err)
		}
	}
	return nil
}
