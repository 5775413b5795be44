package domain

import (
	"strconv"
	"strings"
)

// LogLevel is the database log level applied to every node.
type LogLevel string

// Known log levels.
const (
	LogTrace LogLevel = "TRACE"
	LogDebug LogLevel = "DEBUG"
	LogInfo  LogLevel = "INFO"
	LogWarn  LogLevel = "WARN"
	LogError LogLevel = "ERROR"
)

// KnownLogLevels lists the accepted log levels in increasing severity.
var KnownLogLevels = []LogLevel{LogTrace, LogDebug, LogInfo, LogWarn, LogError}

// ParseLogLevel validates a log level name.
func ParseLogLevel(s string) (LogLevel, error) {
	l := LogLevel(strings.ToUpper(strings.TrimSpace(s)))
	for _, k := range KnownLogLevels {
		if l == k {
			return l, nil
		}
	}
	names := make([]string, len(KnownLogLevels))
	for i, k := range KnownLogLevels {
		names[i] = string(k)
	}
	return "", ErrInvalidArgument.WithDetailsf("unknown log level %q (use one of %s)", s, strings.Join(names, " "))
}

// CommitLogMode selects how the commit log is synced to disk.
type CommitLogMode string

// Commit log modes. They are mutually exclusive.
const (
	CommitLogBatch    CommitLogMode = "batch"
	CommitLogPeriodic CommitLogMode = "periodic"
)

// Well-known partitioner class names.
const (
	PartitionerMurmur3 = "org.apache.cassandra.dht.Murmur3Partitioner"
	PartitionerRandom  = "org.apache.cassandra.dht.RandomPartitioner"

	// PropertyFileSnitch is the endpoint snitch reading the topology file.
	PropertyFileSnitch = "org.apache.cassandra.locator.PropertyFileSnitch"
)

// ClusterConfig holds identity and settings shared by all nodes.
// Every node derives its effective configuration from it.
type ClusterConfig struct {
	Name        string   `validate:"required,excludesall=/"`
	Partitioner string   // empty means the database default
	Options     Options  // overrides merged over the default table
	LogLevel    LogLevel `validate:"required"`
	Root        string   `validate:"required"`
	InstallDir  string
	Version     string
}

// CompareVersions compares two dotted version strings numerically.
// Missing components count as zero; non-numeric suffixes such as "-beta1"
// are ignored. It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	pa, pb := versionParts(a), versionParts(b)
	for len(pa) < len(pb) {
		pa = append(pa, 0)
	}
	for len(pb) < len(pa) {
		pb = append(pb, 0)
	}
	for i := range pa {
		switch {
		case pa[i] < pb[i]:
			return -1
		case pa[i] > pb[i]:
			return 1
		}
	}
	return 0
}

// VersionAtLeast reports whether version v is at least min. An empty
// version is treated as the newest known release.
func VersionAtLeast(v, min string) bool {
	if v == "" {
		return true
	}
	return CompareVersions(v, min) >= 0
}

func versionParts(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+ "); i >= 0 {
		v = v[:i]
	}
	var parts []int
	for _, s := range strings.Split(v, ".") {
		n, err := strconv.Atoi(s)
		if err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts
}
