package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/events"
	"github.com/stackmesh/dnsrig/pkg/journal"
	"github.com/stackmesh/dnsrig/pkg/log"
	"github.com/stackmesh/dnsrig/pkg/metrics"
)

// Outcome classifies how a run ended
type Outcome string

const (
	OutcomePassed      Outcome = "passed"
	OutcomeTestFailed  Outcome = "test-failed"
	OutcomeSetupFailed Outcome = "setup-failed"
	OutcomeError       Outcome = "error"
)

// Report is the result of one scenario run
type Report struct {
	RunID      string
	Scenario   string
	Outcome    Outcome
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
	Hosts      int
}

// Duration returns how long the run took
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Runner executes scenarios with guaranteed environment cleanup, records
// outcomes to the journal and publishes run events. Journal and Broker
// are optional.
type Runner struct {
	Journal *journal.Journal
	Broker  *events.Broker
}

// Run looks up the named scenario and executes it against env. The env is
// closed before Run returns, whatever happened: passed, failed, panicked
// or canceled.
func (r *Runner) Run(ctx context.Context, name string, env *Env) Report {
	sc, ok := Get(name)
	if !ok {
		now := time.Now()
		return Report{
			RunID:      uuid.New().String(),
			Scenario:   name,
			Outcome:    OutcomeError,
			Err:        &UnknownScenarioError{Name: name},
			StartedAt:  now,
			FinishedAt: now,
		}
	}
	return r.runScenario(ctx, sc, env)
}

func (r *Runner) runScenario(ctx context.Context, sc Scenario, env *Env) (report Report) {
	report = Report{
		RunID:     uuid.New().String(),
		Scenario:  sc.Name,
		StartedAt: time.Now(),
		Hosts:     env.Hosts(),
	}
	env.Tag(report.RunID, sc.Name)

	logger := log.WithScenario(sc.Name)
	logger.Info().
		Str("run_id", report.RunID).
		Int("hosts", report.Hosts).
		Msg("scenario starting")
	r.emit(&report, events.EventRunStarted, "")

	timer := metrics.NewTimer()

	defer func() {
		// A panicking scenario is an unexpected fault, not a test verdict
		if rec := recover(); rec != nil {
			report.Err = fmt.Errorf("scenario panicked: %v", rec)
		}

		env.Close()

		report.FinishedAt = time.Now()
		report.Outcome = classify(report.Err)

		metrics.ScenarioRunsTotal.WithLabelValues(sc.Name, string(report.Outcome)).Inc()
		timer.ObserveDurationVec(metrics.ScenarioDuration, sc.Name)

		event := logger.Info()
		if report.Err != nil {
			event = logger.Error().Err(report.Err)
		}
		event.
			Str("run_id", report.RunID).
			Str("outcome", string(report.Outcome)).
			Dur("took", report.Duration()).
			Msg("scenario finished")

		r.emit(&report, events.EventRunFinished, string(report.Outcome))
		r.record(&report)
	}()

	if err := env.Setup(ctx); err != nil {
		report.Err = err
		return report
	}

	report.Err = sc.Run(ctx, env)
	return report
}

// classify maps a run error onto the outcome taxonomy: infrastructure
// failures, assertion failures, everything else
func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomePassed
	case errdefs.IsSetup(err):
		return OutcomeSetupFailed
	case errdefs.IsTest(err):
		return OutcomeTestFailed
	default:
		return OutcomeError
	}
}

func (r *Runner) emit(report *Report, t events.EventType, msg string) {
	if r.Broker == nil {
		return
	}
	r.Broker.Publish(&events.Event{
		RunID:    report.RunID,
		Scenario: report.Scenario,
		Type:     t,
		Message:  msg,
	})
}

func (r *Runner) record(report *Report) {
	if r.Journal == nil {
		return
	}
	rec := &journal.Record{
		ID:         report.RunID,
		Scenario:   report.Scenario,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Outcome:    string(report.Outcome),
		Hosts:      report.Hosts,
	}
	if report.Err != nil {
		rec.Error = report.Err.Error()
	}
	if err := r.Journal.Append(rec); err != nil {
		log.Logger.Warn().
			Str("component", "scenario").
			Err(err).
			Msg("failed to journal run record")
	}
}
