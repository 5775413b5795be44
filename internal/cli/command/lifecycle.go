package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ccm-go/internal/cli/output"
	"github.com/yndnr/ccm-go/internal/cluster"
	"github.com/yndnr/ccm-go/internal/orchestrator"
)

// StartCommand returns the start command.
func StartCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start every node of the cluster that is not running",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-wait",
				Usage: "Do not wait for the nodes to be ready",
			},
			&cli.BoolFlag{
				Name:  "wait-for-binary-proto",
				Usage: "Also wait for the native protocol listener",
			},
			&cli.StringSliceFlag{
				Name:  "jvm-arg",
				Usage: "Extra JVM argument (repeatable)",
			},
		},
		Action: func(c *cli.Context) error {
			cl, err := openCluster(c)
			if err != nil {
				return err
			}
			return startCluster(c, cl, startFlags{
				noWait:      c.Bool("no-wait"),
				binaryProto: c.Bool("wait-for-binary-proto"),
				jvmArgs:     c.StringSlice("jvm-arg"),
			})
		},
	}
}

type startFlags struct {
	noWait      bool
	binaryProto bool
	jvmArgs     []string
}

type startView struct {
	AttemptID string      `json:"attempt_id" yaml:"attempt_id"`
	Ready     bool        `json:"ready" yaml:"ready"`
	Reason    string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	Nodes     []nodeStart `json:"nodes" yaml:"nodes"`
}

type nodeStart struct {
	Name   string `json:"name" yaml:"name"`
	PID    int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Status string `json:"status" yaml:"status"`
}

func (v startView) Table() *output.Table {
	t := output.NewTable("NODE", "PID", "STATUS")
	for _, n := range v.Nodes {
		pid := ""
		if n.PID > 0 {
			pid = fmt.Sprint(n.PID)
		}
		t.AddRow(n.Name, pid, n.Status)
	}
	return t
}

func newStartView(res *orchestrator.Result) startView {
	v := startView{AttemptID: res.AttemptID, Ready: res.Ready, Nodes: []nodeStart{}}
	if res.Reason != nil {
		v.Reason = res.Reason.Error()
	}
	for _, n := range res.Skipped {
		v.Nodes = append(v.Nodes, nodeStart{Name: n.Name, Status: "running"})
	}
	for _, s := range res.Nodes {
		ns := nodeStart{Name: s.Node.Name, Status: s.Status.String()}
		if s.Handle != nil {
			ns.PID = s.Handle.PID()
		}
		v.Nodes = append(v.Nodes, ns)
	}
	return v
}

func startCluster(c *cli.Context, cl *cluster.Cluster, f startFlags) error {
	e := getEnv(c)
	cfg := cl.Config()
	o := newOrchestrator(c, controller(c, cl))

	spin := output.NewSpinner(errWriter(c), fmt.Sprintf("starting cluster %s", cl.Name()))
	if e.format == output.FormatTable && e.cfg.Log.Level != "debug" {
		spin.Start()
	}

	res, err := o.Start(c.Context, cl.Nodes(), orchestrator.StartOptions{
		NoWait:             f.noWait,
		NoWaitDelay:        e.cfg.Start.NoWaitDelay,
		ReadyTimeout:       e.cfg.Start.ReadyTimeout,
		AliveTimeout:       e.cfg.Start.AliveTimeout,
		WaitForBinaryProto: f.binaryProto,
		SettleDelay:        e.cfg.Start.SettleDelay,
		Version:            cfg.Version,
		JVMArgs:            f.jvmArgs,
	})
	if err != nil {
		spin.Fail("cluster " + cl.Name() + " failed to start")
		var se *orchestrator.StartupError
		if errors.As(err, &se) && se.Output != "" {
			fmt.Fprintf(errWriter(c), "output of %s:\n%s\n", se.Node, se.Output)
		}
		return err
	}

	if !res.Ready {
		spin.Fail("cluster " + cl.Name() + " is not ready")
		for _, s := range res.Nodes {
			if s.Status != orchestrator.StatusFailedReadiness || s.Handle == nil {
				continue
			}
			if out := s.Handle.Output(); out != "" {
				fmt.Fprintf(errWriter(c), "output of %s:\n%s\n", s.Node.Name, out)
			}
		}
		if err := render(c, newStartView(res)); err != nil {
			return err
		}
		return fmt.Errorf("cluster %s: %w", cl.Name(), res.Reason)
	}
	spin.Success("cluster " + cl.Name() + " started")
	return render(c, newStartView(res))
}

// StopCommand returns the stop command.
func StopCommand() *cli.Command {
	return &cli.Command{
		Name:  "stop",
		Usage: "Stop every node of the cluster",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-wait",
				Usage: "Do not wait for the processes to exit",
			},
			&cli.BoolFlag{
				Name:  "not-gently",
				Usage: "Kill the processes immediately",
			},
			&cli.BoolFlag{
				Name:  "show-idle",
				Usage: "Print the nodes that were not running",
			},
		},
		Action: clusterStop,
	}
}

func clusterStop(c *cli.Context) error {
	cl, err := openCluster(c)
	if err != nil {
		return err
	}
	o := newOrchestrator(c, controller(c, cl))

	idle, err := o.Stop(c.Context, cl.Nodes(), !c.Bool("no-wait"), !c.Bool("not-gently"))
	if err != nil {
		return err
	}
	if c.Bool("show-idle") && len(idle) > 0 {
		names := make([]string, len(idle))
		for i, n := range idle {
			names[i] = n.Name
		}
		return render(c, names)
	}
	return nil
}
