package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ccm-go/internal/cli/config"
	"github.com/yndnr/ccm-go/internal/cli/output"
	"github.com/yndnr/ccm-go/internal/cluster"
	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/infra/buildinfo"
	"github.com/yndnr/ccm-go/internal/infra/shutdown"
	"github.com/yndnr/ccm-go/internal/orchestrator"
	"github.com/yndnr/ccm-go/internal/process"
	"github.com/yndnr/ccm-go/internal/telemetry/logger"
	"github.com/yndnr/ccm-go/internal/telemetry/metric"
)

const (
	envKey          = "ccm.env"
	shutdownTimeout = 5 * time.Second
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "ccm",
		Usage:   "Create and control local multi-node database clusters",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			CreateCommand(),
			AddCommand(),
			PopulateCommand(),
			ListCommand(),
			StatusCommand(),
			RemoveCommand(),
			ClearCommand(),
			LivesetCommand(),
			StartCommand(),
			StopCommand(),
			FlushCommand(),
			CompactCommand(),
			DrainCommand(),
			UpdateconfCommand(),
			SetlogCommand(),
			SetdirCommand(),
			RingCommand(),
			VersionCommand(),
		},
		Before: before,
		After:  after,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Config file (default ~/.ccm/config.yaml)",
			EnvVars: []string{"CCM_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "root",
			Usage: "Directory holding the clusters (default ~/.ccm)",
		},
		&cli.StringFlag{
			Name:    "cluster",
			Aliases: []string{"c"},
			Usage:   "Cluster to operate on",
			EnvVars: []string{"CCM_CLUSTER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

// env is the per-run state shared by every command.
type env struct {
	cfg      *config.Config
	log      logger.Logger
	metrics  *metric.Registry
	shutdown *shutdown.Handler
	format   output.Format
	cancel   context.CancelFunc
}

func before(c *cli.Context) error {
	overrides := map[string]any{}
	if c.IsSet("root") {
		overrides["root"] = c.String("root")
	}
	if c.Bool("verbose") {
		overrides["log.level"] = "debug"
	}
	cfg, err := config.Load(c.String("config"), overrides)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return err
	}
	logger.SetDefault(log)

	e := &env{
		cfg:      cfg,
		log:      log,
		metrics:  metric.NewRegistry(),
		shutdown: shutdown.NewHandler(shutdownTimeout),
		format:   format,
	}
	if path := cfg.Metrics.Textfile; path != "" {
		e.shutdown.OnShutdown(func(context.Context) error {
			return e.metrics.WriteTextfile(path)
		})
	}

	c.Context, e.cancel = e.shutdown.Context(c.Context)
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[envKey] = e
	return nil
}

func after(c *cli.Context) error {
	e, ok := c.App.Metadata[envKey].(*env)
	if !ok {
		return nil
	}
	e.cancel()
	return e.shutdown.Run()
}

func getEnv(c *cli.Context) *env {
	return c.App.Metadata[envKey].(*env)
}

// clusterName returns the cluster selected by --cluster.
func clusterName(c *cli.Context) (string, error) {
	name := c.String("cluster")
	if name == "" {
		return "", domain.ErrInvalidArgument.WithDetails("no cluster selected (use --cluster or CCM_CLUSTER)")
	}
	return name, nil
}

// openCluster loads the selected cluster.
func openCluster(c *cli.Context) (*cluster.Cluster, error) {
	name, err := clusterName(c)
	if err != nil {
		return nil, err
	}
	return loadCluster(c, name)
}

func loadCluster(c *cli.Context, name string) (*cluster.Cluster, error) {
	e := getEnv(c)
	c.Context = logger.WithCluster(logger.WithLogger(c.Context, e.log), name)
	return cluster.Load(e.cfg.Root, name,
		cluster.WithLogger(e.log),
		cluster.WithMetrics(e.metrics),
	)
}

// controller returns a process controller for the nodes of cl.
func controller(c *cli.Context, cl *cluster.Cluster) *process.ExecController {
	e := getEnv(c)
	scanner := process.NewLogScanner(process.WithScannerLogger(e.log))
	return process.NewExecController(cl.Layout(), cl.Config().InstallDir,
		process.WithLogger(e.log),
		process.WithLogScanner(scanner),
	)
}

func newOrchestrator(c *cli.Context, ctrl process.Controller) *orchestrator.Orchestrator {
	e := getEnv(c)
	return orchestrator.New(ctrl,
		orchestrator.WithLogger(e.log),
		orchestrator.WithMetrics(e.metrics),
	)
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	return output.NewFormatter(getEnv(c).format).Format(c.App.Writer, data)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
