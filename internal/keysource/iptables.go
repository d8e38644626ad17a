package keysource

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const defaultChain = "f2b-sshd"

// Lister produces the raw firewall listing consumed by Extract.
type Lister interface {
	List(ctx context.Context) (string, error)
}

// IPTablesLister reads the ban list of a fail2ban-managed iptables chain.
type IPTablesLister struct {
	chain      string
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewIPTablesLister(chain string) *IPTablesLister {
	trimmed := strings.TrimSpace(chain)
	if trimmed == "" {
		trimmed = defaultChain
	}
	return &IPTablesLister{
		chain:      trimmed,
		runCommand: runCommand,
	}
}

func (l *IPTablesLister) List(ctx context.Context) (string, error) {
	if l == nil || l.runCommand == nil {
		return "", fmt.Errorf("lister is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	out, err := l.runCommand(ctx, "iptables", "-L", l.chain, "-n", "--line-numbers")
	if err != nil {
		return "", fmt.Errorf("iptables listing for chain %q failed: %w", l.chain, err)
	}
	return string(out), nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
