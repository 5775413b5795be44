package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ccm-go/internal/cli/output"
	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/infra/buildinfo"
	"github.com/yndnr/ccm-go/pkg/token"
)

// RingCommand returns the ring command.
func RingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ring",
		Usage:     "Show the token of a partition key and the node owning it",
		ArgsUsage: "KEY",
		Action:    clusterRing,
	}
}

type ringView struct {
	Key    string `json:"key" yaml:"key"`
	Scheme string `json:"scheme" yaml:"scheme"`
	Token  string `json:"token" yaml:"token"`
	Owner  string `json:"owner" yaml:"owner"`
}

func clusterRing(c *cli.Context) error {
	if c.NArg() != 1 {
		return domain.ErrInvalidArgument.WithDetails("usage: ccm ring KEY")
	}
	cl, err := openCluster(c)
	if err != nil {
		return err
	}
	cfg := cl.Config()

	scheme := token.SchemeFor(cfg.Partitioner, domain.VersionAtLeast(cfg.Version, "1.2"))
	if scheme == token.SchemeNone {
		return domain.ErrInvalidArgument.WithDetailsf("partitioner %s has no known token scheme", cfg.Partitioner)
	}
	key := c.Args().First()
	t, err := token.ForKey(scheme, []byte(key))
	if err != nil {
		return domain.ErrInvalidArgument.WithCause(err)
	}

	assignments := make(map[string]string)
	for _, n := range cl.Nodes() {
		assignments[n.Name] = n.InitialToken
	}
	ring, err := token.NewRing(assignments)
	if err != nil {
		return domain.ErrLoad.WithCause(err)
	}

	view := ringView{Key: key, Scheme: scheme.String(), Token: t.String()}
	if ring.Len() > 0 {
		view.Owner = ring.Owner(t)
	}
	if getEnv(c).format == output.FormatTable {
		_, err := fmt.Fprintf(c.App.Writer, "%s -> %s (%s)\n", key, t.String(), ownerOrNone(view.Owner))
		return err
	}
	return render(c, view)
}

func ownerOrNone(owner string) string {
	if owner == "" {
		return "no tokens assigned"
	}
	return owner
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			info := buildinfo.Get()
			if getEnv(c).format == output.FormatTable {
				_, err := fmt.Fprintf(c.App.Writer, "ccm %s\n", buildinfo.String())
				return err
			}
			return render(c, info)
		},
	}
}
