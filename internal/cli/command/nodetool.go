package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/ccm-go/internal/cli/output"
	"github.com/yndnr/ccm-go/internal/orchestrator"
	"github.com/yndnr/ccm-go/internal/process"
)

// FlushCommand returns the flush command.
func FlushCommand() *cli.Command {
	return nodetoolCommand("flush", "Flush every running node of the cluster")
}

// CompactCommand returns the compact command.
func CompactCommand() *cli.Command {
	return nodetoolCommand("compact", "Compact every running node of the cluster")
}

// DrainCommand returns the drain command.
func DrainCommand() *cli.Command {
	return nodetoolCommand("drain", "Drain every running node of the cluster")
}

func nodetoolCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			cl, err := openCluster(c)
			if err != nil {
				return err
			}
			o := newOrchestrator(c, controller(c, cl))
			runs, runErr := o.Nodetool(c.Context, cl.Nodes(), name)
			if err := render(c, newToolView(runs)); err != nil {
				return err
			}
			return runErr
		},
	}
}

type toolView struct {
	Nodes []toolNode `json:"nodes" yaml:"nodes"`
}

type toolNode struct {
	Name   string `json:"name" yaml:"name"`
	OK     bool   `json:"ok" yaml:"ok"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newToolView(runs []orchestrator.ToolRun) toolView {
	v := toolView{Nodes: []toolNode{}}
	for _, r := range runs {
		n := toolNode{Name: r.Node.Name, OK: r.Err == nil, Output: r.Output}
		if r.Err != nil {
			n.Error = r.Err.Error()
		}
		v.Nodes = append(v.Nodes, n)
	}
	return v
}

func (v toolView) Table() *output.Table {
	t := output.NewTable("NODE", "RESULT")
	for _, n := range v.Nodes {
		result := "ok"
		if !n.OK {
			result = "failed"
			if last := process.LastLine(n.Output); last != "" {
				result += ": " + last
			}
		}
		t.AddRow(n.Name, result)
	}
	return t
}
