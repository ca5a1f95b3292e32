// Command gitengine is the CLI front-end for the Git collaboration engine:
// clone/fetch/push driven through the task registry, with live progress and
// task/ip-pool/metrics inspection commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/fireworks/gitengine/internal/config"
	gerrors "github.com/fireworks/gitengine/internal/errors"
	"github.com/fireworks/gitengine/internal/events"
	"github.com/fireworks/gitengine/internal/gitops"
	"github.com/fireworks/gitengine/internal/ippool"
	"github.com/fireworks/gitengine/internal/metrics"
	"github.com/fireworks/gitengine/internal/tasks"
	"github.com/fireworks/gitengine/internal/tlsverify"
	"github.com/fireworks/gitengine/internal/transport"
	"github.com/fireworks/gitengine/internal/version"
)

// CLI is the root Kong command tree.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"gitengine.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Clone   CloneCmd   `cmd:"" help:"Clone a repository"`
	Fetch   FetchCmd   `cmd:"" help:"Fetch updates into an existing repository"`
	Push    PushCmd    `cmd:"" help:"Push local commits to a remote"`
	Task    TaskCmd    `cmd:"" help:"Inspect or cancel tracked tasks"`
	IPPool  IPPoolCmd  `cmd:"" name:"ip-pool" help:"Resolve a host through the IP pool"`
	Metrics MetricsCmd `cmd:"" help:"Print collected metrics"`
}

// Global carries the engine state every non-Init command needs, built once
// config is loaded.
type Global struct {
	Bus      *events.Bus
	Registry *tasks.Registry
	Git      tasks.GitOperations
	Pool     *ippool.Pool
}

func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// InitCmd writes a starter configuration file.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(root *CLI) error {
	return config.Init(root.Config, i.Force)
}

// CloneCmd clones a repository into a new working directory.
type CloneCmd struct {
	URL    string `arg:"" help:"Repository URL or local path to clone"`
	Dest   string `arg:"" help:"Destination directory"`
	Depth  int    `help:"Shallow-clone depth (0 = full history)"`
	Filter string `help:"Partial-clone filter spec (e.g. blob:none)"`
}

func (c *CloneCmd) Run(root *CLI) error {
	g, cfg, err := bootstrap(root)
	if err != nil {
		return err
	}
	id, done := g.Registry.SpawnClone(*cfg, g.Git, tasks.ClonePlan{
		URL: c.URL, Dest: c.Dest, Depth: c.Depth, Filter: c.Filter,
	}, nil)
	return watchTask(g, id, done)
}

// FetchCmd fetches updates into an existing repository.
type FetchCmd struct {
	Dest      string `arg:"" help:"Path to an existing repository"`
	RepoOrURL string `help:"Remote name or URL to fetch from (default: origin)"`
	Depth     int    `help:"Shallow-fetch depth (0 = full history)"`
	Filter    string `help:"Partial-clone filter spec (e.g. blob:none)"`
}

func (c *FetchCmd) Run(root *CLI) error {
	g, cfg, err := bootstrap(root)
	if err != nil {
		return err
	}
	id, done := g.Registry.SpawnFetch(*cfg, g.Git, tasks.FetchPlan{
		RepoOrURL: c.RepoOrURL, Dest: c.Dest, Depth: c.Depth, Filter: c.Filter,
	}, nil)
	return watchTask(g, id, done)
}

// PushCmd pushes local commits to a remote.
type PushCmd struct {
	Dest     string   `arg:"" help:"Path to an existing repository"`
	Remote   string   `help:"Remote name to push to (default: origin)"`
	Refspecs []string `help:"Explicit refspecs to push (default: current branch)"`
	Username string   `help:"Username for basic-auth push" env:"GITENGINE_PUSH_USERNAME"`
	Password string   `help:"Password or token for basic-auth push" env:"GITENGINE_PUSH_PASSWORD"`
}

func (c *PushCmd) Run(root *CLI) error {
	g, cfg, err := bootstrap(root)
	if err != nil {
		return err
	}
	var creds *tasks.Credentials
	if c.Username != "" {
		creds = &tasks.Credentials{Username: c.Username, Password: c.Password}
	}
	id, done := g.Registry.SpawnPush(*cfg, g.Git, tasks.PushPlan{
		Dest: c.Dest, Remote: c.Remote, Refspecs: c.Refspecs, Creds: creds,
	}, nil)
	return watchTask(g, id, done)
}

// TaskCmd inspects or cancels tracked tasks.
type TaskCmd struct {
	List   TaskListCmd   `cmd:"" help:"List tracked tasks"`
	Cancel TaskCancelCmd `cmd:"" help:"Cancel a running task"`
}

type TaskListCmd struct{}

func (t *TaskListCmd) Run(root *CLI) error {
	g, _, err := bootstrap(root)
	if err != nil {
		return err
	}
	for _, task := range g.Registry.List() {
		fmt.Printf("%s\t%s\t%s\t%s\n", task.ID, task.Kind, task.State, task.Message)
	}
	return nil
}

type TaskCancelCmd struct {
	ID string `arg:"" help:"Task ID to cancel"`
}

func (t *TaskCancelCmd) Run(root *CLI) error {
	g, _, err := bootstrap(root)
	if err != nil {
		return err
	}
	if !g.Registry.Cancel(t.ID) {
		return gerrors.ProtocolError("unknown task id").WithCode("unknown_task").Build()
	}
	return nil
}

// IPPoolCmd resolves a host/port pair through the IP pool, reporting the
// selection without performing any Git operation.
type IPPoolCmd struct {
	Host string `arg:"" help:"Hostname to resolve"`
	Port int    `arg:"" default:"443" help:"Port to probe"`
}

func (c *IPPoolCmd) Run(root *CLI) error {
	g, _, err := bootstrap(root)
	if err != nil {
		return err
	}
	sel, err := g.Pool.PickBest(context.Background(), c.Host, c.Port)
	if err != nil {
		return err
	}
	if sel.Stat != nil {
		fmt.Printf("%s -> %s:%d (latency=%.1fms)\n", c.Host, sel.Stat.IP, c.Port, sel.Stat.LatencyMS)
		return nil
	}
	fmt.Printf("%s -> system default\n", c.Host)
	return nil
}

// MetricsCmd prints the metrics registry's Prometheus exposition text. A
// freshly bootstrapped process has nothing recorded yet — this is meant to
// be run against a long-lived daemon's registry in a future iteration; for
// now it demonstrates the wiring end to end.
type MetricsCmd struct{}

func (c *MetricsCmd) Run(root *CLI) error {
	if _, _, err := bootstrap(root); err != nil {
		return err
	}
	promReg := promclient.NewRegistry()
	metrics.NewPrometheusMirror(metrics.NewRegistry(metrics.RealClock{}), promReg)

	families, err := promReg.Gather()
	if err != nil {
		return err
	}
	if len(families) == 0 {
		fmt.Println("no metrics recorded in this invocation")
		return nil
	}
	for _, f := range families {
		fmt.Println(f.String())
	}
	return nil
}

// bootstrap loads config and wires the shared engine objects, installing the
// adaptive transport as go-git's global HTTPS client exactly once.
func bootstrap(root *CLI) (*Global, *config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	bus := events.NewBus()
	verifier, err := tlsverify.NewVerifier(tlsverify.SanWhitelist(cfg.Tls.SanWhitelist), tlsverify.SpkiPinSet(cfg.Tls.SpkiPins))
	if err != nil {
		return nil, nil, fmt.Errorf("build tls verifier: %w", err)
	}
	transport.Install(transport.NewAdaptiveTransport(*cfg, verifier, bus))

	g := &Global{
		Bus:      bus,
		Registry: tasks.NewRegistry(bus),
		Git:      gitops.NewClient(),
		Pool:     ippool.NewPool(cfg.IpPool, bus),
	}
	return g, cfg, nil
}

// watchTask blocks until the task reaches a terminal state, rendering
// progress to stderr and canceling the task if the process receives
// SIGINT/SIGTERM.
func watchTask(g *Global, id string, done <-chan struct{}) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bar := newTaskProgressBar(id)
	defer bar.finish()

	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			bar.drain(g.Bus)
			return taskResult(g, id)
		case <-sigctx.Done():
			g.Registry.Cancel(id)
		case <-ticker.C:
			bar.drain(g.Bus)
		}
	}
}

func taskResult(g *Global, id string) error {
	task, ok := g.Registry.Snapshot(id)
	if !ok {
		return gerrors.InternalError("task vanished from registry").Build()
	}
	switch task.State {
	case tasks.Completed:
		fmt.Fprintf(os.Stderr, "%s: completed\n", task.Kind)
		return nil
	case tasks.Canceled:
		return gerrors.CancelError("task canceled").Build()
	default:
		return errorFromTask(task)
	}
}

// errorFromTask rebuilds a classified error from a terminal Failed task
// snapshot's (category, code, message), so the CLI's exit code matches the
// category the task actually failed with.
func errorFromTask(task tasks.Task) error {
	switch gerrors.Category(task.Category) {
	case gerrors.CategoryAuth:
		return gerrors.AuthError(task.Message).WithCode(task.Code).Build()
	case gerrors.CategoryNetwork:
		return gerrors.NetworkError(task.Message).WithCode(task.Code).Build()
	case gerrors.CategoryProxy:
		return gerrors.ProxyError(task.Message).WithCode(task.Code).Build()
	case gerrors.CategoryTls:
		return gerrors.TlsError(task.Message).WithCode(task.Code).Build()
	case gerrors.CategoryVerify:
		return gerrors.VerifyError(task.Message).WithCode(task.Code).Build()
	case gerrors.CategoryProtocol:
		return gerrors.ProtocolError(task.Message).WithCode(task.Code).Build()
	case gerrors.CategoryCancel:
		return gerrors.CancelError(task.Message).Build()
	default:
		return gerrors.InternalError(task.Message).WithCode(task.Code).Build()
	}
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Description("gitengine: adaptive-transport Git collaboration engine."),
		kong.Vars{"version": version.Version},
	)

	errorAdapter := gerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())

	if err := ctx.Run(cli); err != nil {
		errorAdapter.HandleError(err)
	}
}
