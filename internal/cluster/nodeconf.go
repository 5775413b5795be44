package cluster

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/ccm-go/internal/core/domain"
	"github.com/yndnr/ccm-go/internal/process"
)

// Files written into each node's conf directory.
const (
	NodeConfigFile  = "cassandra.yaml"
	LogConfigFile   = "log4j-server.properties"
	IncludeFile     = "cassandra.in.sh"
	seedProvider    = "org.apache.cassandra.locator.SimpleSeedProvider"
	defaultSnitch   = "org.apache.cassandra.locator.SimpleSnitch"
	binaryProtoFrom = "1.2"
)

// defaults returns the configuration a node runs with before cluster
// overrides are applied. Callers hold c.mu.
func (c *Cluster) defaults(n domain.Node) map[string]any {
	dirs := c.layout.DataDirs(n.Name)
	m := map[string]any{
		"cluster_name":           c.cfg.Name,
		"listen_address":         n.Interfaces.Storage.Host,
		"storage_port":           n.Interfaces.Storage.Port,
		"rpc_address":            n.Interfaces.Thrift.Host,
		"rpc_port":               n.Interfaces.Thrift.Port,
		"auto_bootstrap":         n.AutoBootstrap,
		"endpoint_snitch":        defaultSnitch,
		"data_file_directories":  []string{dirs[0]},
		"commitlog_directory":    dirs[1],
		"saved_caches_directory": dirs[2],
	}
	m["seed_provider"] = []map[string]any{{
		"class_name": seedProvider,
		"parameters": []map[string]any{{
			"seeds": strings.Join(c.seedAddresses(), ","),
		}},
	}}
	if c.cfg.Partitioner != "" {
		m["partitioner"] = c.cfg.Partitioner
	}
	if n.InitialToken != "" {
		m["initial_token"] = n.InitialToken
	}
	if n.Interfaces.Binary != nil {
		m["start_native_transport"] = true
		m["native_transport_port"] = n.Interfaces.Binary.Port
	}
	return m
}

// EffectiveConfig returns the merged configuration of a node.
func (c *Cluster) EffectiveConfig(name string) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(name)
	if i < 0 {
		return nil, domain.ErrNodeNotFound.WithDetailsf("%s in cluster %s", name, c.cfg.Name)
	}
	return c.cfg.Options.Merge(c.defaults(c.nodes[i])), nil
}

// writeNodeFiles creates the node directories and renders its
// configuration. Callers hold c.mu.
func (c *Cluster) writeNodeFiles(n domain.Node) error {
	dirs := append([]string{c.layout.ConfDir(n.Name), c.layout.LogDir(n.Name)}, c.layout.DataDirs(n.Name)...)
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return domain.ErrStorage.WithDetailsf("node %s", n.Name).WithCause(err)
		}
	}
	if err := c.renderNodeConfig(n); err != nil {
		return err
	}
	return c.saveNode(n)
}

// renderNodeConfig writes cassandra.yaml, the log configuration and the
// launcher include for one node. Callers hold c.mu.
func (c *Cluster) renderNodeConfig(n domain.Node) error {
	conf := c.layout.ConfDir(n.Name)

	data, err := yaml.Marshal(c.cfg.Options.Merge(c.defaults(n)))
	if err != nil {
		return domain.ErrStorage.WithDetailsf("encode config of %s", n.Name).WithCause(err)
	}

	files := map[string][]byte{
		NodeConfigFile: data,
		LogConfigFile:  renderLogConfig(n.LogLevel, c.layout.LogFile(n.Name)),
		IncludeFile:    renderInclude(c.cfg.InstallDir, conf),
	}
	for name, content := range files {
		path := filepath.Join(conf, name)
		if err := process.WriteFileAtomic(path, content); err != nil {
			return domain.ErrStorage.WithDetails(path).WithCause(err)
		}
	}
	return nil
}

// refreshNodes re-derives every node's configuration. Callers hold c.mu.
func (c *Cluster) refreshNodes() error {
	for _, n := range c.nodes {
		if err := c.renderNodeConfig(n); err != nil {
			return err
		}
	}
	return nil
}

func renderLogConfig(level domain.LogLevel, logFile string) []byte {
	if level == "" {
		level = domain.LogInfo
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "log4j.rootLogger=%s,stdout,R\n", level)
	b.WriteString("log4j.appender.stdout=org.apache.log4j.ConsoleAppender\n")
	b.WriteString("log4j.appender.stdout.layout=org.apache.log4j.PatternLayout\n")
	b.WriteString("log4j.appender.stdout.layout.ConversionPattern=%5p %d{HH:mm:ss,SSS} %m%n\n")
	b.WriteString("log4j.appender.R=org.apache.log4j.RollingFileAppender\n")
	b.WriteString("log4j.appender.R.maxFileSize=20MB\n")
	b.WriteString("log4j.appender.R.maxBackupIndex=50\n")
	b.WriteString("log4j.appender.R.layout=org.apache.log4j.PatternLayout\n")
	b.WriteString("log4j.appender.R.layout.ConversionPattern=%5p [%t] %d{ISO8601} %F (line %L) %m%n\n")
	fmt.Fprintf(&b, "log4j.appender.R.File=%s\n", logFile)
	return b.Bytes()
}

func renderInclude(installDir, confDir string) []byte {
	var b bytes.Buffer
	b.WriteString("#!/bin/sh\n")
	if installDir != "" {
		fmt.Fprintf(&b, ". %q\n", filepath.Join(installDir, "bin", "cassandra.in.sh"))
	}
	fmt.Fprintf(&b, "CASSANDRA_CONF=%q\n", confDir)
	b.WriteString("export CASSANDRA_CONF\n")
	return b.Bytes()
}
