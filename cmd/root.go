// Package cmd wires up the CLI flags and runs the IRC client.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	"ircline/config"
	ircerr "ircline/internal/errors"
	"ircline/internal/metrics"
	"ircline/internal/transport"
	"ircline/irc"
	"ircline/tunnel"
	"ircline/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X ircline/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// sshKeepAlive is how often a tunnelled client pings the gateway.
const sshKeepAlive = 30 * time.Second

// Execute parses args and runs the client until ctx is cancelled or
// the user types /quit.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdin, os.Stdout)
}

func execute(ctx context.Context, args []string, stdin *os.File, stdout io.Writer) error {
	// Defaults, then environment; flags default to the result so that
	// an explicit flag wins.
	cfg := config.New("")
	config.LoadFromEnv(cfg)
	envVerbose := cfg.Verbose

	fs := flag.NewFlagSet("ircline", flag.ContinueOnError)

	// ── registration ─────────────────────────────────────────────
	fs.StringVarP(&cfg.Nickname, "nick", "n", cfg.Nickname, "Nickname (sent as NICK and USER)")
	fs.StringVarP(&cfg.Username, "user", "u", cfg.Username, "Username (accepted, USER reuses the nickname)")
	fs.StringVar(&cfg.Password, "password", cfg.Password, "Server password (sent as PASS)")
	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "Real-name field of USER")

	var channels []string
	fs.StringSliceVarP(&channels, "channel", "c", nil, "Channel to join (repeatable or comma separated)")

	var passwordPrompt bool
	fs.BoolVar(&passwordPrompt, "password-prompt", false, "Prompt for the server password")

	// ── lifecycle ────────────────────────────────────────────────
	var noAutoConnect, noReconnect bool
	fs.BoolVar(&noAutoConnect, "no-auto-connect", false, "Wait for /connect instead of connecting at start")
	fs.BoolVar(&noReconnect, "no-reconnect", false, "Do not reconnect after a disconnect")

	delayMs := int(cfg.ReconnectDelay / time.Millisecond)
	fs.IntVar(&delayMs, "reconnect-delay", delayMs, "Delay before reconnecting, in milliseconds")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "Timeout for opening the connection")
	fs.IntVar(&cfg.MaxLineLength, "max-line", cfg.MaxLineLength, "Maximum buffered line length in bytes (0 = unlimited)")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "SSH tunnel via [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve /metrics and /status on this address")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Timestamps, "timestamps", cfg.Timestamps, "Prefix log lines with the time")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || (len(args) == 0 && cfg.Server == "") {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "ircline %s\n", version)
		return nil
	}

	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}
	if len(channels) > 0 {
		cfg.Channels = config.JoinChannels(channels)
	}
	if noAutoConnect {
		cfg.AutoConnect = false
	}
	if noReconnect {
		cfg.AutoReconnect = false
	}
	cfg.ReconnectDelay = time.Duration(delayMs) * time.Millisecond

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── tunnel spec ──────────────────────────────────────────────
	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dryRun {
		printSummary(stdout, cfg)
		return nil
	}

	if passwordPrompt {
		pass, err := util.ReadSecret("IRC password: ")
		if err != nil {
			return fmt.Errorf("password prompt: %w", err)
		}
		cfg.Password = pass
	}

	return run(ctx, cfg, stdin, stdout)
}

// run builds the client and its collaborators and blocks until ctx is
// cancelled or the input forwarder asks to quit.
func run(ctx context.Context, cfg *config.Config, stdin *os.File, stdout io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, err := newLineSource(stdin, stdout, util.IsTerminal(stdin))
	if err != nil {
		return err
	}
	defer src.Close()

	logger := newLogger(cfg, src.ErrWriter())
	m := metrics.New()

	var dialer transport.Dialer
	if cfg.TunnelEnabled {
		d := transport.NewSSHDialer(&tunnel.SSHConfig{
			User:              cfg.TunnelUser,
			Host:              cfg.TunnelHost,
			Port:              cfg.TunnelPort,
			KeyPath:           cfg.SSHKeyPath,
			PromptPass:        cfg.SSHPassword,
			UseAgent:          cfg.UseSSHAgent,
			StrictHostKey:     cfg.StrictHostKey,
			KnownHosts:        cfg.KnownHostsPath,
			ConnTimeout:       cfg.DialTimeout,
			KeepAliveInterval: sshKeepAlive,
		}, logger)
		defer d.Close()
		dialer = d
	}

	client, err := irc.NewClient(cfg, dialer, logger, m)
	if err != nil {
		return err
	}

	printEvents(client, src.Writer(), logger)

	// Piped input is usually a script meant for a registered session,
	// so hold it back until the first connect.
	var ready chan struct{}
	if !src.Interactive() && cfg.AutoConnect {
		ready = make(chan struct{})
		var once sync.Once
		client.OnConnect(func() { once.Do(func() { close(ready) }) })
	}
	go forwardInput(ctx, src, client, ready, cancel, logger)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := serveStatus(ctx, cfg.MetricsAddr, newStatusRouter(client, m), logger); err != nil {
				logger.Error("status server: %v", err)
			}
		}()
	}

	return client.Run(ctx)
}

// newLogger builds the process logger.  Debug verbosity always gets
// timestamps.
func newLogger(cfg *config.Config, w io.Writer) *util.Logger {
	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(w)
	logger.SetTimestamps(cfg.Timestamps || logger.Level() >= util.LogDebug)
	return logger
}

// printEvents renders channel messages for the user and, at verbose
// level, every other line verbatim.
func printEvents(client *irc.Client, out io.Writer, logger *util.Logger) {
	client.OnMessage(func(msg irc.ChannelMessage) {
		fmt.Fprintf(out, "[%s] <%s> %s\n", msg.Channel, msg.User, msg.Message)
	})
	client.OnData(func(line string) {
		if logger.Level() < util.LogVerbose {
			return
		}
		if _, ok := irc.Decode(line).(irc.ChannelMessage); ok {
			return
		}
		fmt.Fprintln(out, line)
	})
}

// ── helpers ──────────────────────────────────────────────────────────

func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0: // server from IRCLINE_SERVER
	case 1:
		cfg.Server = remaining[0]
	case 2:
		cfg.Server = remaining[0]
		port, err := strconv.Atoi(remaining[1])
		if err != nil {
			return &ircerr.ConfigError{
				Field:   "port",
				Value:   remaining[1],
				Message: "not a number",
			}
		}
		cfg.Port = port
	default:
		return fmt.Errorf("too many arguments (use --help for usage)")
	}
	return nil
}

func printSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "server:     %s\n", util.FormatAddr(cfg.Server, cfg.Port))
	if cfg.Nickname != "" {
		fmt.Fprintf(w, "nick:       %s\n", cfg.Nickname)
	}
	if len(cfg.Channels) > 0 {
		fmt.Fprintf(w, "channels:   %s\n", strings.Join(cfg.Channels, ","))
	}
	if cfg.TunnelEnabled {
		fmt.Fprintf(w, "tunnel:     %s\n", cfg.TunnelSpec)
	}
	reconnect := "off"
	if cfg.AutoReconnect {
		reconnect = cfg.ReconnectDelay.String()
	}
	fmt.Fprintf(w, "reconnect:  %s\n", reconnect)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `ircline – minimal IRC client v%s

Keeps one connection to an IRC server, joins channels, answers PING and
prints channel messages.  Lines typed on stdin are sent as-is.

Usage:
  ircline [options] <server> [port]
  ircline -T user@gateway [options] <server> [port]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Input commands:
  /connect                                    Connect now (with --no-auto-connect)
  /quit                                       Close the connection and exit

Examples:
  ircline -n gobot -c '#go,#irc' irc.libera.chat
  ircline -n gobot -c '#ops' -T admin@bastion irc.internal 6667
  echo "PRIVMSG #go :hello" | ircline -n gobot -c '#go' irc.libera.chat
`)
}
