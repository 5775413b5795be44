package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ccm-go/internal/cli/output"
	"github.com/yndnr/ccm-go/internal/cluster"
	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/telemetry/metric"
)

// binaryByDefault is the first release starting the native protocol
// without being asked.
const binaryByDefault = "1.2.5"

// CreateCommand returns the create command.
func CreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a new cluster",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "install-dir",
				Usage: "Database installation to run the nodes from",
			},
			&cli.StringFlag{
				Name:  "db-version",
				Usage: "Version of the database installation",
			},
			&cli.StringFlag{
				Name:    "partitioner",
				Aliases: []string{"p"},
				Usage:   "Partitioner class",
			},
			&cli.StringFlag{
				Name:    "nodes",
				Aliases: []string{"n"},
				Usage:   "Populate with N nodes, or N:M:... nodes per datacenter",
			},
			&cli.StringFlag{
				Name:    "ipprefix",
				Aliases: []string{"i"},
				Usage:   "Address prefix used with --nodes",
				Value:   cluster.DefaultIPPrefix,
			},
			&cli.BoolFlag{
				Name:  "vnodes",
				Usage: "Use virtual nodes (256 tokens)",
			},
			&cli.BoolFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start the nodes created by --nodes",
			},
			&cli.BoolFlag{
				Name:    "binary-protocol",
				Aliases: []string{"b"},
				Usage:   "Enable the native protocol and wait for it on start",
			},
			&cli.BoolFlag{
				Name:    "debug-log",
				Aliases: []string{"D"},
				Usage:   "With --nodes, set DEBUG logging",
			},
			&cli.BoolFlag{
				Name:    "trace-log",
				Aliases: []string{"T"},
				Usage:   "With --nodes, set TRACE logging",
			},
			&cli.StringSliceFlag{
				Name:  "jvm-arg",
				Usage: "Extra JVM argument for --start (repeatable)",
			},
		},
		Action: clusterCreate,
	}
}

func clusterCreate(c *cli.Context) error {
	if c.NArg() != 1 {
		return domain.ErrInvalidArgument.WithDetails("usage: ccm create NAME")
	}
	e := getEnv(c)

	var counts []int
	if c.IsSet("nodes") {
		var err error
		if counts, err = parseCounts(c.String("nodes")); err != nil {
			return err
		}
	}

	installDir := c.String("install-dir")
	if installDir == "" {
		installDir = e.cfg.InstallDir
	}
	version := c.String("db-version")
	if version == "" {
		version = e.cfg.Version
	}

	cl, err := cluster.Create(domain.ClusterConfig{
		Name:        c.Args().First(),
		Partitioner: c.String("partitioner"),
		Root:        e.cfg.Root,
		InstallDir:  installDir,
		Version:     version,
	}, cluster.WithLogger(e.log), cluster.WithMetrics(e.metrics))
	if err != nil {
		return err
	}

	binary := c.Bool("binary-protocol") || (version != "" && domain.VersionAtLeast(version, binaryByDefault))
	if binary {
		if err := cl.SetConfigOptions(map[string]domain.OptionValue{"start_native_transport": domain.Set(true)}); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.App.Writer, "Created cluster %s in %s\n", cl.Name(), cl.Dir())

	if counts == nil {
		return nil
	}
	switch {
	case c.Bool("trace-log"):
		err = cl.SetLogLevel(string(domain.LogTrace))
	case c.Bool("debug-log"):
		err = cl.SetLogLevel(string(domain.LogDebug))
	}
	if err != nil {
		return err
	}
	if _, err := cl.Populate(cluster.PopulateSpec{
		Counts:           counts,
		IPPrefix:         c.String("ipprefix"),
		RandomizedTokens: c.Bool("vnodes"),
	}); err != nil {
		return err
	}
	if !c.Bool("start") {
		return nil
	}
	return startCluster(c, cl, startFlags{
		jvmArgs:     c.StringSlice("jvm-arg"),
		binaryProto: binary,
	})
}

// parseCounts parses "3" or "2:3" into node counts.
func parseCounts(s string) ([]int, error) {
	parts := strings.Split(s, ":")
	counts := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, domain.ErrInvalidArgument.WithDetailsf("invalid node count %q", s)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

// ListCommand returns the list command.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List existing clusters",
		Action: clusterList,
	}
}

func clusterList(c *cli.Context) error {
	names, err := cluster.List(getEnv(c).cfg.Root)
	if err != nil {
		return err
	}
	current := c.String("cluster")
	views := make(clusterEntries, len(names))
	for i, n := range names {
		views[i] = clusterEntry{Name: n, Selected: n == current}
	}
	return render(c, views)
}

type clusterEntry struct {
	Name     string `json:"name" yaml:"name"`
	Selected bool   `json:"selected" yaml:"selected"`
}

type clusterEntries []clusterEntry

func (l clusterEntries) Table() *output.Table {
	t := output.NewTable("", "NAME")
	for _, e := range l {
		mark := " "
		if e.Selected {
			mark = "*"
		}
		t.AddRow(mark, e.Name)
	}
	return t
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the nodes of the cluster and whether they run",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "long",
				Aliases: []string{"l"},
				Usage:   "Show ports and tokens",
			},
		},
		Action: clusterStatus,
	}
}

type nodeView struct {
	Name         string `json:"name" yaml:"name"`
	Address      string `json:"address" yaml:"address"`
	DataCenter   string `json:"data_center,omitempty" yaml:"data_center,omitempty"`
	Seed         bool   `json:"seed" yaml:"seed"`
	Up           bool   `json:"up" yaml:"up"`
	InitialToken string `json:"initial_token,omitempty" yaml:"initial_token,omitempty"`
	JMXPort      int    `json:"jmx_port" yaml:"jmx_port"`
	DebugPort    int    `json:"remote_debug_port,omitempty" yaml:"remote_debug_port,omitempty"`
}

type statusView struct {
	Cluster string     `json:"cluster" yaml:"cluster"`
	Nodes   []nodeView `json:"nodes" yaml:"nodes"`
	long    bool
}

func (s statusView) Table() *output.Table {
	headers := []string{"NODE", "ADDRESS", "DC", "SEED", "STATUS"}
	if s.long {
		headers = append(headers, "JMX", "DEBUG", "TOKEN")
	}
	t := output.NewTable(headers...)
	for _, n := range s.Nodes {
		status := "DOWN"
		if n.Up {
			status = "UP"
		}
		row := []string{n.Name, n.Address, n.DataCenter, strconv.FormatBool(n.Seed), status}
		if s.long {
			debug := ""
			if n.DebugPort > 0 {
				debug = strconv.Itoa(n.DebugPort)
			}
			row = append(row, strconv.Itoa(n.JMXPort), debug, n.InitialToken)
		}
		t.AddRow(row...)
	}
	return t
}

func clusterStatus(c *cli.Context) error {
	cl, err := openCluster(c)
	if err != nil {
		return err
	}
	ctrl := controller(c, cl)

	seeds := make(map[string]bool)
	for _, s := range cl.Seeds() {
		seeds[s] = true
	}
	view := statusView{Cluster: cl.Name(), Nodes: []nodeView{}, long: c.Bool("long")}
	for _, n := range cl.Nodes() {
		view.Nodes = append(view.Nodes, nodeView{
			Name:         n.Name,
			Address:      n.Address(),
			DataCenter:   n.DataCenter,
			Seed:         seeds[n.Name],
			Up:           ctrl.IsAlive(n),
			InitialToken: n.InitialToken,
			JMXPort:      n.JMXPort,
			DebugPort:    n.RemoteDebugPort,
		})
	}

	getEnv(c).metrics.MustRegister(metric.NewNodeCollector(cl.Name(), func() []metric.NodeStatus {
		out := make([]metric.NodeStatus, len(view.Nodes))
		for i, n := range view.Nodes {
			out[i] = metric.NodeStatus{Name: n.Name, DataCenter: n.DataCenter, Up: n.Up}
		}
		return out
	}))
	return render(c, view)
}

// RemoveCommand returns the remove command.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove the selected or named cluster and all its data",
		ArgsUsage: "[NAME]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "node",
				Usage: "Remove only this node from the selected cluster",
			},
		},
		Action: clusterRemove,
	}
}

func clusterRemove(c *cli.Context) error {
	if node := c.String("node"); node != "" {
		cl, err := openCluster(c)
		if err != nil {
			return err
		}
		if _, err := cl.Node(node); err != nil {
			return err
		}
		return cl.RemoveNode(c.Context, node)
	}

	name := c.Args().First()
	if name == "" {
		var err error
		if name, err = clusterName(c); err != nil {
			return err
		}
	}
	cl, err := loadCluster(c, name)
	if err != nil {
		return err
	}
	return cl.Destroy(c.Context)
}

// ClearCommand returns the clear command.
func ClearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Stop every node and delete its data and logs",
		Action: func(c *cli.Context) error {
			cl, err := openCluster(c)
			if err != nil {
				return err
			}
			return cl.Clear(c.Context)
		},
	}
}

// LivesetCommand returns the liveset command.
func LivesetCommand() *cli.Command {
	return &cli.Command{
		Name:  "liveset",
		Usage: "Print the comma separated addresses of running nodes",
		Action: func(c *cli.Context) error {
			cl, err := openCluster(c)
			if err != nil {
				return err
			}
			ctrl := controller(c, cl)
			var live []string
			for _, n := range cl.Nodes() {
				if ctrl.IsAlive(n) {
					live = append(live, n.Address())
				}
			}
			_, err = fmt.Fprintln(c.App.Writer, strings.Join(live, ","))
			return err
		},
	}
}

// SetdirCommand returns the setdir command.
func SetdirCommand() *cli.Command {
	return &cli.Command{
		Name:      "setdir",
		Usage:     "Point the cluster at another database installation",
		ArgsUsage: "DIR",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db-version",
				Usage: "Version of the installation",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return domain.ErrInvalidArgument.WithDetails("usage: ccm setdir DIR")
			}
			cl, err := openCluster(c)
			if err != nil {
				return err
			}
			return cl.SetInstallDir(c.Args().First(), c.String("db-version"))
		},
	}
}
