package process

import (
	"os"
	"path/filepath"
)

// Layout maps node names to paths under a cluster directory:
//
//	<cluster>/<node>/conf/          configuration
//	<cluster>/<node>/logs/system.log database log
//	<cluster>/<node>/data/ commitlogs/ saved_caches/
//	<cluster>/<node>/cassandra.pid
type Layout struct {
	ClusterDir string
}

// NodeDir returns the root directory of a node.
func (l Layout) NodeDir(node string) string {
	return filepath.Join(l.ClusterDir, node)
}

// ConfDir returns the configuration directory of a node.
func (l Layout) ConfDir(node string) string {
	return filepath.Join(l.NodeDir(node), "conf")
}

// LogDir returns the log directory of a node.
func (l Layout) LogDir(node string) string {
	return filepath.Join(l.NodeDir(node), "logs")
}

// LogFile returns the database log scanned for readiness.
func (l Layout) LogFile(node string) string {
	return filepath.Join(l.LogDir(node), "system.log")
}

// StdoutFile returns the file capturing the process stdout.
func (l Layout) StdoutFile(node string) string {
	return filepath.Join(l.LogDir(node), "stdout.log")
}

// StderrFile returns the file capturing the process stderr.
func (l Layout) StderrFile(node string) string {
	return filepath.Join(l.LogDir(node), "stderr.log")
}

// PidFile returns the file holding the PID of a running node.
func (l Layout) PidFile(node string) string {
	return filepath.Join(l.NodeDir(node), "cassandra.pid")
}

// DataDirs returns the directories holding node data.
func (l Layout) DataDirs(node string) []string {
	dir := l.NodeDir(node)
	return []string{
		filepath.Join(dir, "data"),
		filepath.Join(dir, "commitlogs"),
		filepath.Join(dir, "saved_caches"),
	}
}

// WriteFileAtomic replaces path with data through a temporary file in the
// same directory, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
