package cluster

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/process"
	"github.com/yndnr/ccm-go/internal/telemetry/logger"
	"github.com/yndnr/ccm-go/internal/telemetry/metric"
	"github.com/yndnr/ccm-go/internal/topology"
)

// File names inside the cluster directory.
const (
	DescriptorFile     = "cluster.conf"
	NodeDescriptorFile = "node.conf"
)

// Cluster is a handle on one persisted cluster.
type Cluster struct {
	mu sync.Mutex

	cfg   domain.ClusterConfig
	nodes []domain.Node // insertion order
	seeds []string

	layout    process.Layout
	stopper   process.Stopper
	publisher *topology.Publisher
	logger    logger.Logger
	metrics   *metric.Registry
}

// Option configures a Cluster handle.
type Option func(*Cluster)

// WithStopper sets the process controller used to stop nodes on removal,
// clear and destroy. The default signals processes through their pid
// files.
func WithStopper(s process.Stopper) Option {
	return func(c *Cluster) {
		c.stopper = s
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cluster) {
		c.logger = l
	}
}

// WithMetrics records provisioning metrics into reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(c *Cluster) {
		c.metrics = reg
	}
}

// descriptor is the on-disk form of cluster.conf.
type descriptor struct {
	Name          string          `yaml:"name"`
	Nodes         []string        `yaml:"nodes"`
	Seeds         []string        `yaml:"seeds"`
	Partitioner   string          `yaml:"partitioner,omitempty"`
	InstallDir    string          `yaml:"database_install_path,omitempty"`
	ConfigOptions domain.Options  `yaml:"config_options"`
	LogLevel      domain.LogLevel `yaml:"log_level"`
	Version       string          `yaml:"version,omitempty"`
}

var requiredFields = []string{"name", "nodes", "seeds"}

func newHandle(cfg domain.ClusterConfig, opts []Option) *Cluster {
	c := &Cluster{
		cfg:    cfg,
		layout: process.Layout{ClusterDir: filepath.Join(cfg.Root, cfg.Name)},
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.stopper == nil {
		c.stopper = process.NewExecController(c.layout, cfg.InstallDir, process.WithLogger(c.logger))
	}
	c.publisher = topology.NewPublisher(func(n domain.Node) string {
		return c.layout.ConfDir(n.Name)
	})
	c.logger = c.logger.With("cluster", cfg.Name)
	return c
}

// Create makes a new empty cluster under cfg.Root. It fails with
// ErrDuplicateName when a cluster of that name already exists.
func Create(cfg domain.ClusterConfig, opts ...Option) (*Cluster, error) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = domain.LogInfo
	}
	if err := domain.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.Options = cfg.Options.Clone()

	dir := filepath.Join(cfg.Root, cfg.Name)
	if _, err := os.Stat(filepath.Join(dir, DescriptorFile)); err == nil {
		return nil, domain.ErrDuplicateName.WithDetailsf("cluster %s already exists in %s", cfg.Name, cfg.Root)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.ErrStorage.WithDetailsf("create %s", dir).WithCause(err)
	}

	c := newHandle(cfg, opts)
	if err := c.save(); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	c.logger.Debug("cluster created", "dir", dir)
	return c, nil
}

// Load re-hydrates the named cluster and all of its nodes.
func Load(root, name string, opts ...Option) (*Cluster, error) {
	dir := filepath.Join(root, name)
	path := filepath.Join(dir, DescriptorFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrClusterNotFound.WithDetailsf("%s in %s", name, root)
		}
		return nil, domain.ErrLoad.WithDetails(path).WithCause(err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, domain.ErrLoad.WithDetails(path).WithCause(err)
	}
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return nil, domain.ErrLoad.WithDetailsf("%s: missing property %s", path, field)
		}
	}

	var d descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, domain.ErrLoad.WithDetails(path).WithCause(err)
	}
	if d.LogLevel == "" {
		d.LogLevel = domain.LogInfo
	}

	cfg := domain.ClusterConfig{
		Name:        d.Name,
		Partitioner: d.Partitioner,
		Options:     d.ConfigOptions,
		LogLevel:    d.LogLevel,
		Root:        root,
		InstallDir:  d.InstallDir,
		Version:     d.Version,
	}
	c := newHandle(cfg, opts)

	for _, nodeName := range d.Nodes {
		n, err := c.loadNode(nodeName)
		if err != nil {
			return nil, err
		}
		c.nodes = append(c.nodes, n)
	}
	for _, s := range d.Seeds {
		if c.indexOf(s) < 0 {
			return nil, domain.ErrLoad.WithDetailsf("%s: seed %s is not a node", path, s)
		}
		c.seeds = append(c.seeds, s)
	}
	return c, nil
}

func (c *Cluster) loadNode(name string) (domain.Node, error) {
	path := filepath.Join(c.layout.NodeDir(name), NodeDescriptorFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Node{}, domain.ErrLoad.WithDetails(path).WithCause(err)
	}
	var n domain.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return domain.Node{}, domain.ErrLoad.WithDetails(path).WithCause(err)
	}
	if n.Name == "" {
		return domain.Node{}, domain.ErrLoad.WithDetailsf("%s: missing property name", path)
	}
	if n.Name != name {
		return domain.Node{}, domain.ErrLoad.WithDetailsf("%s: name %s does not match directory %s", path, n.Name, name)
	}
	if err := n.Validate(); err != nil {
		return domain.Node{}, domain.ErrLoad.WithDetails(path).WithCause(err)
	}
	return n, nil
}

// List returns the names of the clusters found under root, sorted.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.ErrStorage.WithDetailsf("list %s", root).WithCause(err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), DescriptorFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Name returns the cluster name.
func (c *Cluster) Name() string {
	return c.cfg.Name
}

// Dir returns the cluster directory.
func (c *Cluster) Dir() string {
	return c.layout.ClusterDir
}

// Layout returns the path layout of the cluster's nodes.
func (c *Cluster) Layout() process.Layout {
	return c.layout
}

// Config returns a copy of the cluster-wide configuration.
func (c *Cluster) Config() domain.ClusterConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg := c.cfg
	cfg.Options = cfg.Options.Clone()
	return cfg
}

// Nodes returns the nodes in insertion order.
func (c *Cluster) Nodes() []domain.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Node(nil), c.nodes...)
}

// Node returns the named node.
func (c *Cluster) Node(name string) (domain.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(name); i >= 0 {
		return c.nodes[i], nil
	}
	return domain.Node{}, domain.ErrNodeNotFound.WithDetailsf("%s in cluster %s", name, c.cfg.Name)
}

// Seeds returns the seed node names in order.
func (c *Cluster) Seeds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.seeds...)
}

// SeedAddresses returns the storage addresses of the seeds.
func (c *Cluster) SeedAddresses() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seedAddresses()
}

func (c *Cluster) seedAddresses() []string {
	out := make([]string, 0, len(c.seeds))
	for _, s := range c.seeds {
		if i := c.indexOf(s); i >= 0 {
			out = append(out, c.nodes[i].Address())
		}
	}
	return out
}

func (c *Cluster) indexOf(name string) int {
	for i, n := range c.nodes {
		if n.Name == name {
			return i
		}
	}
	return -1
}

func (c *Cluster) isSeed(name string) bool {
	for _, s := range c.seeds {
		if s == name {
			return true
		}
	}
	return false
}

// save writes cluster.conf. Callers hold c.mu or own c exclusively.
func (c *Cluster) save() error {
	names := make([]string, len(c.nodes))
	for i, n := range c.nodes {
		names[i] = n.Name
	}
	d := descriptor{
		Name:          c.cfg.Name,
		Nodes:         names,
		Seeds:         append([]string{}, c.seeds...),
		Partitioner:   c.cfg.Partitioner,
		InstallDir:    c.cfg.InstallDir,
		ConfigOptions: c.cfg.Options,
		LogLevel:      c.cfg.LogLevel,
		Version:       c.cfg.Version,
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return domain.ErrStorage.WithDetails("encode cluster descriptor").WithCause(err)
	}
	path := filepath.Join(c.layout.ClusterDir, DescriptorFile)
	if err := process.WriteFileAtomic(path, data); err != nil {
		return domain.ErrStorage.WithDetails(path).WithCause(err)
	}
	return nil
}

func (c *Cluster) saveNode(n domain.Node) error {
	data, err := yaml.Marshal(n)
	if err != nil {
		return domain.ErrStorage.WithDetailsf("encode node %s", n.Name).WithCause(err)
	}
	path := filepath.Join(c.layout.NodeDir(n.Name), NodeDescriptorFile)
	if err := process.WriteFileAtomic(path, data); err != nil {
		return domain.ErrStorage.WithDetails(path).WithCause(err)
	}
	return nil
}
