package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/events"
	"github.com/stackmesh/dnsrig/pkg/journal"
	"github.com/stackmesh/dnsrig/pkg/launcher"
	"github.com/stackmesh/dnsrig/pkg/log"
	"github.com/stackmesh/dnsrig/pkg/metrics"
	"github.com/stackmesh/dnsrig/pkg/scenario"
	"github.com/stackmesh/dnsrig/pkg/topology"
)

var runOpts struct {
	binary      string
	hosts       int
	budget      time.Duration
	debug       bool
	connCheck   bool
	scenarios   []string
	ttl         time.Duration
	journalDir  string
	metricsAddr string
	configPath  string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision the topology and run test scenarios",
	Long: `Provision the emulated network, launch one service instance per host
and execute the requested scenarios against them. Without --scenario,
every registered scenario runs in name order.

The environment is torn down after each scenario, passed or failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if runOpts.configPath != "" {
			if err := applyRigFile(cmd, runOpts.configPath); err != nil {
				return err
			}
		}
		if runOpts.binary == "" {
			return errdefs.Setupf("no service executable given (-w/--weavedns)")
		}

		names := runOpts.scenarios
		if len(names) == 0 {
			names = scenario.Names()
		}
		// Catch typos before any kernel state is touched
		for _, name := range names {
			if _, ok := scenario.Get(name); !ok {
				return &scenario.UnknownScenarioError{Name: name}
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if runOpts.metricsAddr != "" {
			srv := serveMetrics(runOpts.metricsAddr)
			defer srv.Close()
		}

		var jnl *journal.Journal
		if runOpts.journalDir != "" {
			var err error
			jnl, err = journal.Open(runOpts.journalDir)
			if err != nil {
				return errdefs.WrapSetup(err, "open journal")
			}
			defer jnl.Close()
		}

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		sub := broker.Subscribe()
		go printProgress(sub)
		defer func() {
			// Let the final events drain before closing the subscription
			time.Sleep(100 * time.Millisecond)
			broker.Unsubscribe(sub)
		}()

		prov := topology.NewProvisioner(topology.Config{Hosts: runOpts.hosts})
		svc := launcher.New(launcher.Config{
			Binary: runOpts.binary,
			Debug:  runOpts.debug,
		})
		runner := &scenario.Runner{Journal: jnl, Broker: broker}

		var reports []scenario.Report
		for _, name := range names {
			env := scenario.NewEnv(
				scenario.Config{
					Hosts:       runOpts.hosts,
					NegCacheTTL: runOpts.ttl,
					ConnCheck:   runOpts.connCheck,
				},
				scenario.Deps{
					Provisioner: prov,
					Launcher:    &serviceLauncher{svc},
					Broker:      broker,
				},
			)

			runCtx, cancel := context.WithTimeout(ctx, runOpts.budget)
			reports = append(reports, runner.Run(runCtx, name, env))
			cancel()

			if ctx.Err() != nil {
				log.Logger.Warn().
					Str("component", "cli").
					Msg("interrupted, skipping remaining scenarios")
				break
			}
		}

		printSummary(reports)
		return verdict(reports)
	},
}

func init() {
	flags := runCmd.Flags()
	flags.StringVarP(&runOpts.binary, "weavedns", "w", "", "Path to the DNS service executable")
	flags.StringVar(&runOpts.binary, "exe", "", "Alias for --weavedns")
	flags.IntVarP(&runOpts.hosts, "num", "n", topology.DefaultHosts, "Number of emulated hosts")
	flags.DurationVarP(&runOpts.budget, "time", "t", 2*time.Minute, "Time budget per scenario")
	flags.BoolVarP(&runOpts.debug, "debug", "d", false, "Echo captured service output into the log")
	flags.BoolVarP(&runOpts.connCheck, "conn-check", "c", false, "Verify inter-host connectivity before launching")
	flags.StringArrayVar(&runOpts.scenarios, "scenario", nil, "Scenario to run (repeatable; default: all)")
	flags.DurationVar(&runOpts.ttl, "ttl", scenario.DefaultNegCacheTTL, "Negative-cache TTL of the service under test")
	flags.StringVar(&runOpts.journalDir, "journal-dir", "./dnsrig-data", "Directory for the run journal (empty disables journaling)")
	flags.StringVar(&runOpts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	flags.StringVarP(&runOpts.configPath, "config", "f", "", "YAML rig file; flags take precedence")

	flags.MarkHidden("exe")
}

// serviceLauncher adapts the concrete launcher to the scenario
// environment's Launcher interface
type serviceLauncher struct {
	l *launcher.Launcher
}

func (s *serviceLauncher) Launch(ctx context.Context, host *topology.Host) (scenario.Instance, error) {
	inst, err := s.l.Launch(ctx, host)
	if err != nil {
		// A typed nil must not escape as a non-nil Instance
		return nil, err
	}
	return inst, nil
}

// rigFile is the YAML form of the run configuration. Durations are Go
// duration strings ("30s", "2m").
type rigFile struct {
	Weavedns    string   `yaml:"weavedns"`
	Hosts       int      `yaml:"hosts"`
	Time        string   `yaml:"time"`
	Debug       bool     `yaml:"debug"`
	ConnCheck   bool     `yaml:"conn_check"`
	Scenarios   []string `yaml:"scenarios"`
	TTL         string   `yaml:"ttl"`
	JournalDir  string   `yaml:"journal_dir"`
	MetricsAddr string   `yaml:"metrics_addr"`
}

// applyRigFile folds file values into runOpts, skipping any field whose
// flag was set on the command line
func applyRigFile(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errdefs.WrapSetup(err, "read rig file")
	}
	var rf rigFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return errdefs.WrapSetup(err, "parse rig file")
	}

	flags := cmd.Flags()
	if rf.Weavedns != "" && !flags.Changed("weavedns") && !flags.Changed("exe") {
		runOpts.binary = rf.Weavedns
	}
	if rf.Hosts != 0 && !flags.Changed("num") {
		runOpts.hosts = rf.Hosts
	}
	if rf.Time != "" && !flags.Changed("time") {
		d, err := time.ParseDuration(rf.Time)
		if err != nil {
			return errdefs.WrapSetup(err, "parse rig file time")
		}
		runOpts.budget = d
	}
	if rf.Debug && !flags.Changed("debug") {
		runOpts.debug = true
	}
	if rf.ConnCheck && !flags.Changed("conn-check") {
		runOpts.connCheck = true
	}
	if len(rf.Scenarios) > 0 && !flags.Changed("scenario") {
		runOpts.scenarios = rf.Scenarios
	}
	if rf.TTL != "" && !flags.Changed("ttl") {
		d, err := time.ParseDuration(rf.TTL)
		if err != nil {
			return errdefs.WrapSetup(err, "parse rig file ttl")
		}
		runOpts.ttl = d
	}
	if rf.JournalDir != "" && !flags.Changed("journal-dir") {
		runOpts.journalDir = rf.JournalDir
	}
	if rf.MetricsAddr != "" && !flags.Changed("metrics-addr") {
		runOpts.metricsAddr = rf.MetricsAddr
	}
	return nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Logger.Warn().
				Str("component", "cli").
				Err(err).
				Msg("metrics server stopped")
		}
	}()

	log.Logger.Info().
		Str("component", "cli").
		Str("addr", addr).
		Msg("serving metrics")
	return srv
}

// printProgress renders run events as they arrive, until the
// subscription channel closes
func printProgress(sub events.Subscriber) {
	for ev := range sub {
		switch ev.Type {
		case events.EventRunStarted:
			fmt.Printf("\nRunning scenario '%s'...\n", ev.Scenario)
		case events.EventTopologyUp:
			fmt.Printf("✓ Topology up (%s hosts)\n", ev.Metadata["hosts"])
		case events.EventInstanceReady:
			fmt.Printf("✓ Service ready on %s\n", ev.Message)
		case events.EventStepPassed:
			fmt.Printf("✓ %s\n", ev.Message)
		case events.EventRunFinished:
			fmt.Printf("Scenario '%s' finished: %s\n", ev.Scenario, ev.Message)
		}
	}
}

func printSummary(reports []scenario.Report) {
	fmt.Println()
	for _, rep := range reports {
		marker := "✓"
		if rep.Outcome != scenario.OutcomePassed {
			marker = "✗"
		}
		fmt.Printf("%s %-16s %-13s %s\n",
			marker, rep.Scenario, rep.Outcome, rep.Duration().Round(time.Millisecond))
	}
}

// verdict folds the run outcomes into the error that decides the exit
// code: setup failures dominate, everything else non-passing counts as a
// test failure
func verdict(reports []scenario.Report) error {
	failed, setup := 0, 0
	for _, rep := range reports {
		switch rep.Outcome {
		case scenario.OutcomePassed:
		case scenario.OutcomeSetupFailed:
			setup++
			failed++
		default:
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	if setup > 0 {
		return errdefs.Setupf("%d of %d scenarios failed", failed, len(reports))
	}
	return errdefs.Testf("%d of %d scenarios failed", failed, len(reports))
}
