package command

import (
	"maps"
	"slices"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/telemetry/logger"
)

// UpdateconfCommand returns the updateconf command.
func UpdateconfCommand() *cli.Command {
	return &cli.Command{
		Name:      "updateconf",
		Usage:     "Update the configuration of every node",
		ArgsUsage: "[KEY=VALUE | 'KEY: VALUE' ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "no-hh",
				Aliases: []string{"no-hinted-handoff"},
				Usage:   "Disable hinted handoff",
			},
			&cli.BoolFlag{
				Name:    "batch-cl",
				Aliases: []string{"batch-commit-log"},
				Usage:   "Sync the commit log in batch mode",
			},
			&cli.BoolFlag{
				Name:    "periodic-cl",
				Aliases: []string{"periodic-commit-log"},
				Usage:   "Sync the commit log periodically",
			},
			&cli.IntFlag{
				Name:    "rt",
				Aliases: []string{"rpc-timeout"},
				Usage:   "Request timeout in milliseconds",
			},
		},
		Action: clusterUpdateconf,
	}
}

func clusterUpdateconf(c *cli.Context) error {
	if c.Bool("batch-cl") && c.Bool("periodic-cl") {
		return domain.ErrInvalidArgument.WithDetails("--batch-cl and --periodic-cl are exclusive")
	}
	settings, err := parseSettings(c.Args().Slice())
	if err != nil {
		return err
	}
	cl, err := openCluster(c)
	if err != nil {
		return err
	}

	settings["hinted_handoff_enabled"] = domain.Set(!c.Bool("no-hh"))
	if c.IsSet("rt") {
		rt := domain.Set(c.Int("rt"))
		if domain.VersionAtLeast(cl.Config().Version, "1.2") {
			for _, k := range []string{
				"read_request_timeout_in_ms",
				"range_request_timeout_in_ms",
				"write_request_timeout_in_ms",
				"truncate_request_timeout_in_ms",
				"request_timeout_in_ms",
			} {
				settings[k] = rt
			}
		} else {
			settings["rpc_timeout_in_ms"] = rt
		}
	}

	if err := cl.SetConfigOptions(settings); err != nil {
		return err
	}
	log := logger.L(c.Context)
	for _, k := range slices.Sorted(maps.Keys(settings)) {
		log.Info("config option updated", "key", k, "value", logger.RedactOption(k, settings[k].String()))
	}
	switch {
	case c.Bool("batch-cl"):
		return cl.SetCommitLogMode(domain.CommitLogBatch)
	case c.Bool("periodic-cl"):
		return cl.SetCommitLogMode(domain.CommitLogPeriodic)
	}
	return nil
}

// parseSettings parses "key=value" or "key: value" arguments. Values are
// YAML scalars; null unsets the key.
func parseSettings(args []string) (map[string]domain.OptionValue, error) {
	out := make(map[string]domain.OptionValue, len(args))
	for _, arg := range args {
		i := strings.IndexAny(arg, "=:")
		if i <= 0 {
			return nil, domain.ErrInvalidArgument.WithDetailsf("invalid setting %q (use key=value)", arg)
		}
		key := strings.TrimSpace(arg[:i])
		raw := strings.TrimSpace(arg[i+1:])

		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, domain.ErrInvalidArgument.WithDetailsf("invalid value for %s", key).WithCause(err)
		}
		if v == nil {
			out[key] = domain.Unset()
		} else {
			out[key] = domain.Set(v)
		}
	}
	return out, nil
}

// SetlogCommand returns the setlog command.
func SetlogCommand() *cli.Command {
	return &cli.Command{
		Name:      "setlog",
		Usage:     "Set the log level of every node (takes effect on restart)",
		ArgsUsage: "LEVEL",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return domain.ErrInvalidArgument.WithDetails("usage: ccm setlog LEVEL")
			}
			cl, err := openCluster(c)
			if err != nil {
				return err
			}
			return cl.SetLogLevel(c.Args().First())
		},
	}
}
