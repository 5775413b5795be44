package cluster

import (
	"context"
	"errors"
	"os"

	"github.com/yndnr/ccm-go/internal/core/domain"
)

// Clear stops every node and wipes its data and logs. Node
// configuration is kept, so the cluster can be started again from
// scratch.
func (c *Cluster) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.stopAll(ctx, true); err != nil {
		return err
	}
	for _, n := range c.nodes {
		dirs := append(c.layout.DataDirs(n.Name), c.layout.LogDir(n.Name))
		for _, d := range dirs {
			if err := os.RemoveAll(d); err != nil {
				return domain.ErrStorage.WithDetailsf("clear %s", n.Name).WithCause(err)
			}
			if err := os.MkdirAll(d, 0o755); err != nil {
				return domain.ErrStorage.WithDetailsf("clear %s", n.Name).WithCause(err)
			}
		}
	}
	c.logger.Info("cluster cleared", "nodes", len(c.nodes))
	return nil
}

// Destroy force-stops every node and deletes the cluster directory.
// The handle must not be used afterwards.
func (c *Cluster) Destroy(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.stopAll(ctx, false); err != nil {
		return err
	}
	if err := os.RemoveAll(c.layout.ClusterDir); err != nil {
		return domain.ErrStorage.WithDetailsf("delete %s", c.layout.ClusterDir).WithCause(err)
	}
	c.nodes, c.seeds = nil, nil
	c.logger.Info("cluster destroyed", "dir", c.layout.ClusterDir)
	return nil
}

// stopAll stops every running node and waits for it. Callers hold c.mu.
func (c *Cluster) stopAll(ctx context.Context, gently bool) error {
	var errs []error
	for _, n := range c.nodes {
		if !c.stopper.IsAlive(n) {
			continue
		}
		if _, err := c.stopper.Stop(ctx, n, gently, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
