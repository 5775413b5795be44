package process

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yndnr/ccm-go/internal/core/domain"
)

// nodetoolHost is where JMX listens; nodes bind it to the loopback
// interface only.
const nodetoolHost = "localhost"

// Nodetool runs <install>/bin/nodetool against the node's JMX port.
func (c *ExecController) Nodetool(ctx context.Context, node domain.Node, args ...string) (string, error) {
	bin := filepath.Join(c.installDir, "bin", "nodetool")
	if _, err := os.Stat(bin); err != nil {
		return "", domain.ErrProcess.WithDetailsf("nodetool %s", bin).WithCause(err)
	}

	argv := append([]string{"-h", nodetoolHost, "-p", strconv.Itoa(node.JMXPort)}, args...)
	cmd := exec.CommandContext(ctx, bin, argv...)
	cmd.Env = c.environment(node, LaunchOptions{})
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	c.logger.Debug("running nodetool", "node", node.Name, "args", args)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out.String(), ctxErr
		}
		return out.String(), domain.ErrProcess.
			WithDetailsf("nodetool %s on %s: %s", strings.Join(args, " "), node.Name, LastLine(out.String())).
			WithCause(err)
	}
	return out.String(), nil
}

// LastLine returns the last non-blank line of captured output.
func LastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
