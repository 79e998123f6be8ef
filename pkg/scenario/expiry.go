package scenario

import (
	"context"

	"github.com/stackmesh/dnsrig/pkg/events"
	"github.com/stackmesh/dnsrig/pkg/log"
	"github.com/stackmesh/dnsrig/pkg/resolve"
)

// The stock scenarios publish one well-known record
const (
	testContainerID = "container"
	testFQDN        = "something.weave.local."
	testAddr        = "10.0.0.9"
)

func init() {
	Register(Scenario{
		Name:        "forward-expiry",
		Description: "publish, resolve, delete and re-publish a name, checking that cached answers expire",
		Run:         runForwardExpiry,
	})
	Register(Scenario{
		Name:        "reverse-expiry",
		Description: "the forward-expiry sequence driven through reverse lookups",
		Run:         runReverseExpiry,
	})
}

func runForwardExpiry(ctx context.Context, env *Env) error {
	lookup := func(ctx context.Context, server string) (*resolve.Result, error) {
		return env.Resolver().Forward(ctx, testFQDN, server)
	}
	return runExpiry(ctx, env, lookup, testAddr, "lookup "+testFQDN)
}

func runReverseExpiry(ctx context.Context, env *Env) error {
	lookup := func(ctx context.Context, server string) (*resolve.Result, error) {
		return env.Resolver().Reverse(ctx, testAddr, server)
	}
	return runExpiry(ctx, env, lookup, testFQDN, "reverse lookup "+testAddr)
}

// runExpiry walks the publish/delete/re-publish sequence, waiting out the
// service cache between mutations. The record is published on one
// instance and observed through another, so every assertion also covers
// propagation across the mesh.
func runExpiry(ctx context.Context, env *Env,
	lookup func(context.Context, string) (*resolve.Result, error),
	want, what string) error {

	observer, owner, err := env.Pair()
	if err != nil {
		return err
	}
	names := env.Names()

	// 1. Publish the record
	if err := names.Publish(ctx, owner.Server(), testContainerID, testFQDN, testAddr); err != nil {
		return err
	}
	env.CleanupName(owner.Server(), testContainerID, testFQDN, testAddr)
	env.emit(events.EventRecordPublished, testFQDN, nil)

	// 2. The other instance must resolve it
	res, err := lookup(ctx, observer.Server())
	if err != nil {
		return err
	}
	if err := ExpectContains(res, want, what); err != nil {
		return err
	}
	logStep(env, "record resolves after publish")

	// 3. Delete it and wait out the cached answer
	if err := names.Delete(ctx, owner.Server(), testContainerID, testFQDN, testAddr); err != nil {
		return err
	}
	env.emit(events.EventRecordDeleted, testFQDN, nil)
	if err := env.WaitExpiry(ctx, "cached answer"); err != nil {
		return err
	}

	// 4. The record must be gone
	res, err = lookup(ctx, observer.Server())
	if err != nil {
		return err
	}
	if err := ExpectEmpty(res, what+" after delete"); err != nil {
		return err
	}
	logStep(env, "record gone after delete")

	// 5. Re-publish. The miss above is cached too, so the record comes
	// back only after the negative answer expires.
	if err := names.Publish(ctx, owner.Server(), testContainerID, testFQDN, testAddr); err != nil {
		return err
	}
	env.emit(events.EventRecordPublished, testFQDN, nil)
	if err := env.WaitExpiry(ctx, "negative answer"); err != nil {
		return err
	}

	// 6. The record must resolve again
	res, err = lookup(ctx, observer.Server())
	if err != nil {
		return err
	}
	if err := ExpectContains(res, want, what+" after re-publish"); err != nil {
		return err
	}
	logStep(env, "record resolves after re-publish")

	return nil
}

func logStep(env *Env, msg string) {
	env.emit(events.EventStepPassed, msg, nil)
	log.Logger.Info().
		Str("component", "scenario").
		Str("scenario", env.scenario).
		Msg(msg)
}
