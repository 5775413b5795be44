package command

import (
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ccm-go/internal/cli/output"
	"github.com/yndnr/ccm-go/internal/cluster"
	"github.com/yndnr/ccm-go/internal/core/domain"
)

// AddCommand returns the add command.
func AddCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a node to the cluster",
		ArgsUsage: "NODE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "itf",
				Aliases: []string{"i"},
				Usage:   "Host[:port] used for every interface",
			},
			&cli.StringFlag{
				Name:    "thrift-itf",
				Aliases: []string{"t"},
				Usage:   "Thrift host[:port]",
			},
			&cli.StringFlag{
				Name:    "storage-itf",
				Aliases: []string{"l"},
				Usage:   "Storage host[:port]",
			},
			&cli.StringFlag{
				Name:  "binary-itf",
				Usage: "Native protocol host[:port]",
			},
			&cli.IntFlag{
				Name:    "jmx-port",
				Aliases: []string{"j"},
				Usage:   "JMX port",
				Value:   domain.DefaultJMXPort,
			},
			&cli.IntFlag{
				Name:    "remote-debug-port",
				Aliases: []string{"r"},
				Usage:   "Remote debugging port (0 disables)",
			},
			&cli.StringFlag{
				Name:    "token",
				Aliases: []string{"n"},
				Usage:   "Initial token",
			},
			&cli.StringFlag{
				Name:    "data-center",
				Aliases: []string{"d"},
				Usage:   "Datacenter of the node",
			},
			&cli.BoolFlag{
				Name:    "auto-bootstrap",
				Aliases: []string{"b"},
				Usage:   "Bootstrap the node when it joins",
			},
			&cli.BoolFlag{
				Name:    "seed",
				Aliases: []string{"s"},
				Usage:   "Make the node a seed",
			},
		},
		Action: nodeAdd,
	}
}

func nodeAdd(c *cli.Context) error {
	if c.NArg() != 1 {
		return domain.ErrInvalidArgument.WithDetails("usage: ccm add NODE")
	}
	cl, err := openCluster(c)
	if err != nil {
		return err
	}

	itf := func(name string) string {
		if v := c.String(name); v != "" {
			return v
		}
		return c.String("itf")
	}
	thriftItf, storageItf := itf("thrift-itf"), itf("storage-itf")
	if thriftItf == "" || storageItf == "" {
		return domain.ErrInvalidArgument.WithDetails("missing thrift and/or storage interface (use --itf)")
	}

	thrift, err := domain.ParseEndpoint(thriftItf, domain.DefaultThriftPort)
	if err != nil {
		return err
	}
	storage, err := domain.ParseEndpoint(storageItf, domain.DefaultStoragePort)
	if err != nil {
		return err
	}
	node := domain.Node{
		Name: c.Args().First(),
		Interfaces: domain.Interfaces{
			Storage: storage,
			Thrift:  thrift,
		},
		JMXPort:         c.Int("jmx-port"),
		RemoteDebugPort: c.Int("remote-debug-port"),
		InitialToken:    c.String("token"),
		AutoBootstrap:   c.Bool("auto-bootstrap"),
	}

	binaryItf := itf("binary-itf")
	if binaryItf != "" && domain.VersionAtLeast(cl.Config().Version, "1.2") {
		binary, err := domain.ParseEndpoint(binaryItf, domain.DefaultBinaryPort)
		if err != nil {
			return err
		}
		node.Interfaces.Binary = &binary
	}

	return cl.AddNode(node, c.Bool("seed"), c.String("data-center"))
}

// PopulateCommand returns the populate command.
func PopulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "populate",
		Usage: "Add a group of seed nodes with default settings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "nodes",
				Aliases:  []string{"n"},
				Usage:    "N nodes, or N:M:... nodes per datacenter",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable remote debugging",
			},
			&cli.BoolFlag{
				Name:  "vnodes",
				Usage: "Use virtual nodes (256 tokens)",
			},
			&cli.StringFlag{
				Name:    "ipprefix",
				Aliases: []string{"i"},
				Usage:   "Address prefix completed with the node index",
				Value:   cluster.DefaultIPPrefix,
			},
			&cli.StringFlag{
				Name:  "iplist",
				Usage: "Comma separated node addresses, overrides --ipprefix",
			},
			&cli.StringFlag{
				Name:  "tokens",
				Usage: "Comma separated initial tokens in node order",
			},
		},
		Action: nodePopulate,
	}
}

func nodePopulate(c *cli.Context) error {
	counts, err := parseCounts(c.String("nodes"))
	if err != nil {
		return err
	}
	cl, err := openCluster(c)
	if err != nil {
		return err
	}

	nodes, err := cl.Populate(cluster.PopulateSpec{
		Counts:           counts,
		IPPrefix:         c.String("ipprefix"),
		IPList:           splitList(c.String("iplist")),
		Debug:            c.Bool("debug"),
		RandomizedTokens: c.Bool("vnodes"),
		Tokens:           splitList(c.String("tokens")),
	})
	if err != nil {
		return err
	}

	views := make(populated, len(nodes))
	for i, n := range nodes {
		views[i] = nodeView{
			Name:         n.Name,
			Address:      n.Address(),
			DataCenter:   n.DataCenter,
			Seed:         true,
			InitialToken: n.InitialToken,
			JMXPort:      n.JMXPort,
			DebugPort:    n.RemoteDebugPort,
		}
	}
	return render(c, views)
}

type populated []nodeView

func (p populated) Table() *output.Table {
	t := output.NewTable("NODE", "ADDRESS", "DC", "JMX", "TOKEN")
	for _, n := range p {
		t.AddRow(n.Name, n.Address, n.DataCenter, strconv.Itoa(n.JMXPort), n.InitialToken)
	}
	return t
}

// splitList splits a comma separated flag, dropping empty items. An
// empty flag gives nil.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
