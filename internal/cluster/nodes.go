package cluster

import (
	"context"
	"os"

	"github.com/yndnr/ccm-go/internal/core/domain"
)

// AddNode registers a node, optionally as a seed, and provisions its
// directory. A non-empty dataCenter labels the node and republishes the
// topology of the whole cluster. A name already in use fails with
// ErrDuplicateName and changes nothing.
func (c *Cluster) AddNode(node domain.Node, isSeed bool, dataCenter string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addNode(node, isSeed, dataCenter)
}

func (c *Cluster) addNode(node domain.Node, isSeed bool, dataCenter string) error {
	if c.indexOf(node.Name) >= 0 {
		return domain.ErrDuplicateName.WithDetailsf("cannot create existing node %s", node.Name)
	}
	if err := node.Validate(); err != nil {
		return err
	}
	if node.InitialToken != "" {
		if v, ok := c.cfg.Options.Get("num_tokens"); ok && v.IsSet() {
			return domain.ErrInvalidArgument.WithDetailsf("node %s: initial token conflicts with num_tokens", node.Name)
		}
	}

	node.DataCenter = dataCenter
	node.LogLevel = c.cfg.LogLevel

	prevNodes, prevSeeds := c.nodes, c.seeds
	c.nodes = append(append([]domain.Node(nil), c.nodes...), node)
	if isSeed {
		c.seeds = append(append([]string(nil), c.seeds...), node.Name)
	}

	rollback := func() {
		c.nodes, c.seeds = prevNodes, prevSeeds
		_ = os.RemoveAll(c.layout.NodeDir(node.Name))
	}

	if err := c.writeNodeFiles(node); err != nil {
		rollback()
		return err
	}
	if err := c.save(); err != nil {
		rollback()
		return err
	}
	// Seeds are rendered into every node's config.
	if isSeed {
		if err := c.refreshNodes(); err != nil {
			return err
		}
	}
	if dataCenter != "" {
		if err := c.publisher.Publish(c.nodes); err != nil {
			return err
		}
	}

	c.logger.Debug("node added", "node", node.Name, "seed", isSeed, "dc", dataCenter)
	return nil
}

// RemoveNode force-stops the named node, purges its directory and drops
// it from the registry and seeds. Removing an unknown node is a no-op.
func (c *Cluster) RemoveNode(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(name)
	if i < 0 {
		return nil
	}
	node := c.nodes[i]

	if _, err := c.stopper.Stop(ctx, node, false, true); err != nil {
		return err
	}

	nodes := make([]domain.Node, 0, len(c.nodes)-1)
	nodes = append(nodes, c.nodes[:i]...)
	nodes = append(nodes, c.nodes[i+1:]...)
	seeds := make([]string, 0, len(c.seeds))
	for _, s := range c.seeds {
		if s != name {
			seeds = append(seeds, s)
		}
	}
	c.nodes, c.seeds = nodes, seeds

	if err := c.save(); err != nil {
		return err
	}
	if err := os.RemoveAll(c.layout.NodeDir(name)); err != nil {
		return domain.ErrStorage.WithDetailsf("purge node %s", name).WithCause(err)
	}
	if err := c.refreshNodes(); err != nil {
		return err
	}
	if c.hasDataCenters() {
		if err := c.publisher.Publish(c.nodes); err != nil {
			return err
		}
	}

	c.logger.Debug("node removed", "node", name)
	return nil
}

func (c *Cluster) hasDataCenters() bool {
	for _, n := range c.nodes {
		if n.DataCenter != "" {
			return true
		}
	}
	return false
}
