package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hwstore/hwstore-server/internal/log"
	"github.com/hwstore/hwstore-server/internal/proto"
)

type options struct {
	addr     string
	user     string
	room     string
	logLevel string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "chat",
		Short:        "Terminal client for the storefront chat relay",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.NewWithWriter(os.Stderr, opts.logLevel, "console")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runInteractive(ctx, opts, os.Stdin, cmd.OutOrStdout(), logger)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.addr, "addr", "ws://localhost:3000/ws", "WebSocket address")
	pf.StringVar(&opts.user, "user", "", "display name (empty keeps the server default)")
	pf.StringVar(&opts.room, "room", "", "room to join (empty keeps the server default)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level for client diagnostics")

	root.AddCommand(newSmokeCommand(opts))
	return root
}

func newSmokeCommand(opts *options) *cobra.Command {
	var (
		text    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Join, send one message and wait for it to come back",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runSmoke(ctx, opts, text, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&text, "text", "hello from smoke test", "message text to send")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "total timeout for the run")
	return cmd
}

func dialAndJoin(ctx context.Context, opts *options) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, opts.addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	join := proto.Inbound{Type: proto.InboundTypeJoin}
	if opts.room != "" || opts.user != "" {
		payload, err := marshalData(proto.JoinData{Room: opts.room, Username: opts.user})
		if err != nil {
			conn.CloseNow()
			return nil, err
		}
		join.Data = payload
	}
	if err := wsjson.Write(ctx, conn, join); err != nil {
		conn.CloseNow()
		return nil, fmt.Errorf("send join: %w", err)
	}
	return conn, nil
}

func runInteractive(ctx context.Context, opts *options, in io.Reader, out io.Writer, logger *zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, err := dialAndJoin(ctx, opts)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Fprintf(out, "Connected to %s\n", opts.addr)
	fmt.Fprintln(out, "Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn, out, logger)
	}()

	writeLoop(ctx, conn, in, logger)
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn, out io.Writer, logger *zerolog.Logger) {
	for {
		var outbound wireOutbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				fmt.Fprintln(out, "* connection closed by server")
				return
			}
			logger.Error().Err(err).Msg("read error")
			return
		}
		fmt.Fprintln(out, formatOutbound(outbound))
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, in io.Reader, logger *zerolog.Logger) {
	lines := scanLines(ctx, in)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cmd, ok := parseLine(line)
			if !ok {
				continue
			}
			if err := wsjson.Write(ctx, conn, cmd); err != nil {
				logger.Error().Err(err).Msg("send error")
				return
			}
		}
	}
}

// scanLines feeds lines from in until it is exhausted or ctx ends.
func scanLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func runSmoke(ctx context.Context, opts *options, text string, out io.Writer) error {
	conn, err := dialAndJoin(ctx, opts)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	payload, err := marshalData(text)
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMessage, Data: payload}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	for {
		var outbound wireOutbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("waiting for echo: %w", err)
		}
		fmt.Fprintln(out, formatOutbound(outbound))
		if outbound.Type == proto.OutboundTypeError {
			return fmt.Errorf("server error: %s", formatOutbound(outbound))
		}
		if outbound.Event != proto.EventNameMessage {
			continue
		}
		if ev, err := outbound.event(); err == nil && ev.Text == text {
			fmt.Fprintln(out, "smoke ok")
			return nil
		}
	}
}

// parseLine turns a typed line into an envelope. "/join room [name]" switches
// rooms; anything else is sent as a chat message.
func parseLine(line string) (proto.Inbound, bool) {
	text := strings.TrimSpace(line)
	if text == "" {
		return proto.Inbound{}, false
	}

	if rest, ok := strings.CutPrefix(text, "/join"); ok && (rest == "" || rest[0] == ' ') {
		fields := strings.Fields(rest)
		var join proto.JoinData
		if len(fields) > 0 {
			join.Room = fields[0]
		}
		if len(fields) > 1 {
			join.Username = strings.Join(fields[1:], " ")
		}
		payload, err := marshalData(join)
		if err != nil {
			return proto.Inbound{}, false
		}
		return proto.Inbound{Type: proto.InboundTypeJoin, Data: payload}, true
	}

	payload, err := marshalData(text)
	if err != nil {
		return proto.Inbound{}, false
	}
	return proto.Inbound{Type: proto.InboundTypeMessage, Data: payload}, true
}
