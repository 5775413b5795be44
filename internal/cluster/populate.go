package cluster

import (
	"fmt"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/pkg/token"
)

// Populate defaults.
const (
	DefaultIPPrefix = "127.0.0."
	VirtualNodes    = 256

	jmxPortBase   = 7000
	debugPortBase = 2000
	portStep      = 100
)

// PopulateSpec describes a bulk provisioning request.
type PopulateSpec struct {
	// Counts holds one node count for a single datacenter cluster, or one
	// count per datacenter. Several counts label nodes dc1..dcN and switch
	// the cluster to the property file snitch.
	Counts []int
	// IPPrefix is completed with the node index. Defaults to 127.0.0.
	IPPrefix string
	// IPList, when set, gives one address per node and overrides IPPrefix.
	IPList []string
	// Debug enables remote debugging on port 2000+i*100.
	Debug bool
	// RandomizedTokens skips computed tokens and enables virtual nodes.
	RandomizedTokens bool
	// Tokens overrides the computed initial tokens, in node order.
	Tokens []string
}

// Populate creates nodes node1..nodeN as seeds. All arguments are checked
// before the first node is created.
func (c *Cluster) Populate(spec PopulateSpec) ([]domain.Node, error) {
	total := 0
	for _, n := range spec.Counts {
		if n < 0 {
			return nil, domain.ErrInvalidArgument.WithDetailsf("invalid node count %v", spec.Counts)
		}
		total += n
	}
	if total < 1 {
		return nil, domain.ErrInvalidArgument.WithDetailsf("invalid node count %v", spec.Counts)
	}
	if spec.IPList != nil && len(spec.IPList) != total {
		return nil, domain.ErrInvalidArgument.WithDetailsf("%d addresses given for %d nodes", len(spec.IPList), total)
	}
	if spec.RandomizedTokens && len(spec.Tokens) > 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("explicit tokens cannot be combined with randomized tokens")
	}
	prefix := spec.IPPrefix
	if prefix == "" {
		prefix = DefaultIPPrefix
	}

	var dcs []string
	if len(spec.Counts) > 1 {
		for i, n := range spec.Counts {
			for j := 0; j < n; j++ {
				dcs = append(dcs, fmt.Sprintf("dc%d", i+1))
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 1; i <= total; i++ {
		name := fmt.Sprintf("node%d", i)
		if c.indexOf(name) >= 0 {
			return nil, domain.ErrInvalidArgument.WithDetailsf("cannot create existing node %s", name).
				WithCause(domain.ErrDuplicateName.WithDetails(name))
		}
	}

	tokens := spec.Tokens
	if len(tokens) == 0 && !spec.RandomizedTokens {
		scheme := token.SchemeFor(c.cfg.Partitioner, domain.VersionAtLeast(c.cfg.Version, binaryProtoFrom))
		if scheme != token.SchemeNone {
			computed, err := token.Allocate(total, scheme)
			if err != nil {
				return nil, domain.ErrInvalidArgument.WithCause(err)
			}
			tokens = token.Strings(computed)
		}
	}

	nodes := make([]domain.Node, 0, total)
	for i := 1; i <= total; i++ {
		ip := fmt.Sprintf("%s%d", prefix, i)
		if spec.IPList != nil {
			ip = spec.IPList[i-1]
		}
		n := domain.Node{
			Name: fmt.Sprintf("node%d", i),
			Interfaces: domain.Interfaces{
				Storage: domain.Endpoint{Host: ip, Port: domain.DefaultStoragePort},
				Thrift:  domain.Endpoint{Host: ip, Port: domain.DefaultThriftPort},
			},
			JMXPort: jmxPortBase + i*portStep,
		}
		if domain.VersionAtLeast(c.cfg.Version, binaryProtoFrom) {
			n.Interfaces.Binary = &domain.Endpoint{Host: ip, Port: domain.DefaultBinaryPort}
		}
		if spec.Debug {
			n.RemoteDebugPort = debugPortBase + i*portStep
		}
		if i-1 < len(tokens) {
			n.InitialToken = tokens[i-1]
		}
		if err := n.Validate(); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	// Cluster-wide switches go first so every node renders with them.
	var pairs []domain.OptionPair
	if dcs != nil {
		pairs = append(pairs, domain.OptionPair{Key: "endpoint_snitch", Value: domain.Set(domain.PropertyFileSnitch)})
	}
	if spec.RandomizedTokens {
		pairs = append(pairs, domain.OptionPair{Key: "num_tokens", Value: domain.Set(VirtualNodes)})
	}
	if len(pairs) > 0 {
		if err := c.applyOptions(pairs...); err != nil {
			return nil, err
		}
	}

	for i, n := range nodes {
		dc := ""
		if i < len(dcs) {
			dc = dcs[i]
		}
		if err := c.addNode(n, true, dc); err != nil {
			return nil, err
		}
		nodes[i] = c.nodes[len(c.nodes)-1]
	}

	if c.metrics != nil {
		c.metrics.NodesPopulated.Add(float64(total))
	}
	c.logger.Info("cluster populated", "nodes", total, "datacenters", len(spec.Counts))
	return nodes, nil
}
