// Command dbridgectl drives one or more Android devices over the debug
// bridge: listing devices, shelling in, pushing/pulling files, deploying
// native agents, and streaming capture/touch sessions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	kongcompletion "github.com/jotaen/kong-completion"
	"github.com/posener/complete"
	"gopkg.in/natefinch/lumberjack.v2"

	dbridge "github.com/banksean/dbridge"
	"github.com/banksean/dbridge/adb"
)

// Context carries shared, already-parsed global flags plus the adb client
// every subcommand builds its DeviceHandle components from.
type Context struct {
	BridgePath string
	AgentRoot  string
	LedgerPath string
	Client     *adb.Client
	Profiles   dbridge.ProfileSet
}

// CLI is the top-level kong command tree.
type CLI struct {
	BridgePath   string `default:"adb" placeholder:"<path>" help:"path to the debug-bridge binary"`
	AgentRoot    string `default:"" placeholder:"<dir>" help:"root directory holding android/<abi>/bin and lib agent binaries"`
	LedgerPath   string `default:"" placeholder:"<path>" help:"sqlite path for the agent-install ledger (empty disables it)"`
	ProfilesPath string `default:"" placeholder:"<path>" help:"YAML device-profile file pinning known ABI/SDK per serial"`
	LogFile      string `default:"" placeholder:"<path>" help:"log file path (rotated via lumberjack); empty logs to stderr"`
	LogLevel     string `default:"info" placeholder:"<debug|info|warn|error>" help:"logging level"`

	Devices     DevicesCmd     `cmd:"" help:"list attached devices"`
	Shell       ShellCmd       `cmd:"" help:"open an interactive shell on a device"`
	Push        PushCmd        `cmd:"" help:"push a file to a device"`
	Pull        PullCmd        `cmd:"" help:"pull a file from a device"`
	InstallAgent InstallAgentCmd `cmd:"install-agent" help:"deploy a native agent to a device"`
	Capture     CaptureCmd     `cmd:"" help:"stream capture frames from a device to disk"`
	Tap         TapCmd         `cmd:"" help:"send a single tap/click to a device"`
	Forwards    ForwardsCmd    `cmd:"" help:"list, add, or remove port forwards"`
	Completions kongcompletion.Cmd `cmd:"" hidden:"" help:"print shell completion scripts"`
	Version     VersionCmd     `cmd:"" help:"print version information"`
}

func (c *CLI) initLogging() {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w = os.Stderr
	var handler slog.Handler
	if c.LogFile == "" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "dbridgectl: creating log dir: %v\n", err)
			os.Exit(1)
		}
		handler = slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		}, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

const description = `dbridgectl drives Android devices over the debug bridge: device
discovery, file transfer, native agent deployment, and capture/touch
session streaming.`

func main() {
	var cli CLI

	parser := kong.Must(&cli,
		kong.Configuration(kongyaml.Loader, ".dbridgectl.yaml", "~/.dbridgectl.yaml"),
		kong.Description(description),
		kong.UsageOnError(),
	)

	kongcompletion.Register(parser,
		kongcompletion.WithPredictor("device", complete.PredictAnything),
		kongcompletion.WithPredictor("file", complete.PredictFiles("*")),
	)

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cli.initLogging()

	var profiles dbridge.ProfileSet
	if cli.ProfilesPath != "" {
		p, err := dbridge.LoadProfiles(cli.ProfilesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dbridgectl: %v\n", err)
			os.Exit(1)
		}
		profiles = p
	}

	client := adb.NewClient(cli.BridgePath)
	runCtx := &Context{
		BridgePath: cli.BridgePath,
		AgentRoot:  cli.AgentRoot,
		LedgerPath: cli.LedgerPath,
		Client:     client,
		Profiles:   profiles,
	}

	err = kctx.Run(runCtx)
	kctx.FatalIfErrorf(err)
}

// background returns a cancellable context wired to no signal handling
// beyond the process's own; subcommands that open long-lived sessions
// cancel it themselves on completion.
func background() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}
