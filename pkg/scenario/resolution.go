package scenario

import (
	"context"

	"github.com/stackmesh/dnsrig/pkg/events"
)

func init() {
	Register(Scenario{
		Name:        "resolution",
		Description: "publish a name and check forward and reverse resolution on every instance, no expiry waits",
		Run:         runResolution,
	})
}

// runResolution is the quick smoke scenario: no deletions, no waiting on
// caches, just the published record visible from both directions on every
// instance.
func runResolution(ctx context.Context, env *Env) error {
	_, owner, err := env.Pair()
	if err != nil {
		return err
	}
	names := env.Names()
	r := env.Resolver()

	if err := names.Publish(ctx, owner.Server(), testContainerID, testFQDN, testAddr); err != nil {
		return err
	}
	env.CleanupName(owner.Server(), testContainerID, testFQDN, testAddr)
	env.emit(events.EventRecordPublished, testFQDN, nil)

	for _, inst := range env.Instances() {
		res, err := r.Forward(ctx, testFQDN, inst.Server())
		if err != nil {
			return err
		}
		if err := ExpectContains(res, testAddr, "lookup "+testFQDN+" on "+inst.Name()); err != nil {
			return err
		}

		res, err = r.Reverse(ctx, testAddr, inst.Server())
		if err != nil {
			return err
		}
		if err := ExpectContains(res, testFQDN, "reverse lookup "+testAddr+" on "+inst.Name()); err != nil {
			return err
		}
		logStep(env, "record resolves on "+inst.Name())
	}

	return nil
}
