// Command condrvd is the host executable spec.md §6.5 places out of
// scope: it wires config, logging, server state, the dispatch engine,
// and a reference PTY-backed transport together, then drives the
// dispatch loop until the spawned shell exits. It adds no protocol
// behavior of its own.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/condrv-project/condrv/internal/config"
	"github.com/condrv-project/condrv/internal/dispatch"
	"github.com/condrv-project/condrv/internal/logging"
	"github.com/condrv-project/condrv/internal/server"
	"github.com/condrv-project/condrv/internal/transport"
	"github.com/condrv-project/condrv/internal/transport/ptydemo"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var shell string
	var rows, cols uint16

	root := &cobra.Command{
		Use:   "condrvd",
		Short: "Classic-console server: ConDrv protocol dispatch over a PTY",
		Long: "condrvd hosts the console dispatch engine against a real PTY, " +
			"so a classic console client spawned under it drives the same " +
			"connect/raw_write/raw_read/user_defined protocol a kernel-mediated " +
			"ConDrv transport would carry.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, shell, rows, cols)
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to a YAML server config (optional)")
	root.Flags().StringVar(&shell, "shell", defaultShell(), "command to spawn under the PTY")
	root.Flags().Uint16Var(&rows, "rows", 40, "initial PTY row count")
	root.Flags().Uint16Var(&cols, "cols", 120, "initial PTY column count")

	return root
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

func run(configPath, shell string, rows, cols uint16) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	log := logging.New(cfg.LogLevel, os.Stderr)
	state := server.New(cfg)
	engine := dispatch.New(state, log)

	sess, err := ptydemo.Start(shell, nil, rows, cols, log)
	if err != nil {
		return fmt.Errorf("start pty session: %w", err)
	}
	defer sess.Close()

	proc, err := connectProcess(engine, uint32(os.Getpid()), 0, shell)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	log.Info().
		Str("process", proc.process.String()).
		Str("input", proc.input.String()).
		Str("output", proc.output.String()).
		Msg("condrv client connected")

	defer dispatchDisconnect(engine, proc.process)

	return driveLoop(engine, proc, sess)
}

// driveLoop repeatedly issues raw_read requests against the connected
// client's input handle, forwarding the decoded bytes nowhere further
// than back out through raw_write (a real host would hand them to a
// client-side console API caller); reply-pending outcomes are retried
// on a short interval rather than on a genuine input-change event,
// since this reference wiring has no second thread to signal one
// (spec §4.5 leaves the retry policy to the caller).
func driveLoop(e *dispatch.Engine, proc connectedProcess, sess *ptydemo.Session) error {
	for {
		if sess.InputDisconnected() {
			return nil
		}
		out := make([]byte, 4096)
		pkt := &transport.Packet{
			Descriptor: transport.Descriptor{
				Function: transport.FuncRawRead,
				Object:   proc.input,
			},
			Output: out,
		}
		res := e.Dispatch(pkt, sess)
		if res.ReplyPending {
			e.Replies.Retain(pkt, sess)
			time.Sleep(20 * time.Millisecond)
			e.Replies.Retry(e)
			continue
		}
		if res.Completion.Status != transport.StatusSuccess {
			time.Sleep(20 * time.Millisecond)
			continue
		}
		n := res.Completion.Information
		if n == 0 {
			continue
		}
		writePkt := &transport.Packet{
			Descriptor: transport.Descriptor{
				Function: transport.FuncRawWrite,
				Object:   proc.output,
			},
			Input: out[:n],
		}
		e.Dispatch(writePkt, sess)
	}
}
