package cluster

import (
	"slices"
	"sort"

	"github.com/yndnr/ccm-go/internal/core/domain"
)

// SetConfigOptions records configuration overrides and re-derives every
// node's configuration. Keys are applied in sorted order.
func (c *Cluster) SetConfigOptions(values map[string]domain.OptionValue) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]domain.OptionPair, len(keys))
	for i, k := range keys {
		pairs[i] = domain.OptionPair{Key: k, Value: values[k]}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyOptions(pairs...)
}

// SetCommitLogMode switches the commit log between batch and periodic
// sync. The settings of the other mode are unset.
func (c *Cluster) SetCommitLogMode(mode domain.CommitLogMode) error {
	var pairs []domain.OptionPair
	switch mode {
	case domain.CommitLogBatch:
		pairs = []domain.OptionPair{
			{Key: "commitlog_sync", Value: domain.Set("batch")},
			{Key: "commitlog_sync_batch_window_in_ms", Value: domain.Set(5)},
			{Key: "commitlog_sync_period_in_ms", Value: domain.Unset()},
		}
	case domain.CommitLogPeriodic:
		pairs = []domain.OptionPair{
			{Key: "commitlog_sync", Value: domain.Set("periodic")},
			{Key: "commitlog_sync_period_in_ms", Value: domain.Set(10000)},
			{Key: "commitlog_sync_batch_window_in_ms", Value: domain.Unset()},
		}
	default:
		return domain.ErrInvalidArgument.WithDetailsf("unknown commit log mode %q", mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyOptions(pairs...)
}

// applyOptions records overrides, persists and re-renders. Callers hold
// c.mu.
func (c *Cluster) applyOptions(pairs ...domain.OptionPair) error {
	for _, p := range pairs {
		if p.Key == "" {
			return domain.ErrInvalidArgument.WithDetails("empty configuration key")
		}
	}
	prev := c.cfg.Options.Clone()
	for _, p := range pairs {
		c.cfg.Options.Put(p.Key, p.Value)
	}
	if err := c.save(); err != nil {
		c.cfg.Options = prev
		return err
	}
	return c.refreshNodes()
}

// SetLogLevel applies a log level to the cluster and every node.
func (c *Cluster) SetLogLevel(level string) error {
	l, err := domain.ParseLogLevel(level)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prevCfg, prevNodes := c.cfg, slices.Clone(c.nodes)
	c.cfg.LogLevel = l
	for i := range c.nodes {
		c.nodes[i].LogLevel = l
	}
	if err := c.save(); err != nil {
		c.cfg, c.nodes = prevCfg, prevNodes
		return err
	}
	for i := range c.nodes {
		if err := c.saveNode(c.nodes[i]); err != nil {
			c.rollback(prevCfg, prevNodes)
			return err
		}
	}
	return c.refreshNodes()
}

// SetPartitioner changes the partitioner class of the cluster. An empty
// class restores the database default.
func (c *Cluster) SetPartitioner(partitioner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.cfg
	c.cfg.Partitioner = partitioner
	if err := c.save(); err != nil {
		c.cfg = prev
		return err
	}
	return c.refreshNodes()
}

// SetInstallDir points the cluster at another database installation.
// version may be empty when unknown.
func (c *Cluster) SetInstallDir(dir, version string) error {
	if dir == "" {
		return domain.ErrInvalidArgument.WithDetails("empty install directory")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.cfg
	c.cfg.InstallDir = dir
	c.cfg.Version = version
	if err := c.save(); err != nil {
		c.cfg = prev
		return err
	}
	if err := c.refreshNodes(); err != nil {
		return err
	}
	if c.hasDataCenters() {
		return c.publisher.Publish(c.nodes)
	}
	return nil
}

// rollback restores the in-memory state after a partial write and tries
// to put the descriptors back. Callers hold c.mu.
func (c *Cluster) rollback(cfg domain.ClusterConfig, nodes []domain.Node) {
	c.cfg, c.nodes = cfg, nodes
	if err := c.save(); err != nil {
		c.logger.Warn("cannot restore cluster descriptor", "error", err)
	}
	for _, n := range c.nodes {
		if err := c.saveNode(n); err != nil {
			c.logger.Warn("cannot restore node descriptor", "node", n.Name, "error", err)
		}
	}
}
