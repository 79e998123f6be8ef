/*
Package events provides an in-memory event broker for the harness's pub/sub messaging.

The events package implements a lightweight event bus for broadcasting run
events to interested subscribers. All events are delivered asynchronously
over buffered channels, keeping the scenario runner decoupled from whatever
is watching a run: the CLI progress printer, the journal, or a test.

# Architecture

The event system provides non-blocking pub/sub messaging with buffered
channels:

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │              Event Broker                  │           │
	│  │  - In-memory message bus                   │           │
	│  │  - Topic-agnostic (all events broadcast)   │           │
	│  │  - Non-blocking publish                    │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          Event Distribution                │           │
	│  │                                            │           │
	│  │  Publisher → Event Channel (buffer: 100)   │           │
	│  │       ↓                                    │           │
	│  │  Broadcast Loop                            │           │
	│  │       ↓                                    │           │
	│  │  Subscriber Channels (buffer: 50 each)     │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │           Event Types                      │           │
	│  │                                            │           │
	│  │  Run Events:                               │           │
	│  │    - run.started                           │           │
	│  │    - run.finished                          │           │
	│  │    - step.passed                           │           │
	│  │                                            │           │
	│  │  Environment Events:                       │           │
	│  │    - topology.up / topology.down           │           │
	│  │    - instance.ready / instance.stopped     │           │
	│  │                                            │           │
	│  │  Record Events:                            │           │
	│  │    - record.published                      │           │
	│  │    - record.deleted                        │           │
	│  └────────────────────────────────────────────┘           │
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │            Subscribers                     │           │
	│  │                                            │           │
	│  │  CLI: live progress while a run executes   │           │
	│  │  Tests: assert on the run lifecycle        │           │
	│  └────────────────────────────────────────────┘           │
	└───────────────────────────────────────────────────────────┘

# Core Components

Event Broker:
  - Central message bus for event distribution
  - Manages subscriber lifecycle
  - Non-blocking publish (buffered channel)
  - Graceful shutdown via stop channel

Event:
  - RunID: Identifier of the scenario run that emitted it
  - Scenario: Scenario name the run executed
  - Type: Event type (run.started, instance.ready, etc.)
  - Timestamp: When the event occurred
  - Message: Human-readable description
  - Metadata: Key-value pairs for additional context

Subscriber:
  - Channel that receives Event pointers
  - Buffered (50 events) to handle bursts
  - Created via broker.Subscribe()
  - Closed via broker.Unsubscribe()

# Event Flow

Publish Flow:
 1. Publisher calls broker.Publish(event)
 2. Event added to main event channel (non-blocking)
 3. Broadcast loop receives event
 4. Event sent to all subscriber channels
 5. Full subscriber buffers skip (no blocking)

Events published from a single goroutine arrive at each subscriber in
publish order, so a watcher sees run.started before topology.up before
instance.ready.

# Usage

Creating and starting the broker:

	import "github.com/stackmesh/dnsrig/pkg/events"

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

Subscribing to run progress:

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("[%s] %s %s\n",
				event.Timestamp.Format("15:04:05"),
				event.Type,
				event.Message)
		}
	}()

Publishing events:

	broker.Publish(&events.Event{
		RunID:    runID,
		Scenario: "forward-expiry",
		Type:     events.EventStepPassed,
		Message:  "record resolves after publish",
	})

# Event Types Catalog

Run Events:

EventRunStarted:
  - Published when: Runner begins a scenario run
  - Subscribers: CLI progress, tests

EventRunFinished:
  - Published when: Run ends, whatever the outcome
  - Message: The outcome (passed, test-failed, setup-failed, error)
  - Subscribers: CLI progress, tests

EventStepPassed:
  - Published when: A scenario checkpoint holds
  - Message: What was verified
  - Subscribers: CLI progress

Environment Events:

EventTopologyUp / EventTopologyDown:
  - Published when: The emulated network comes up / is torn down
  - Metadata: hosts (count)

EventInstanceReady / EventInstanceStopped:
  - Published when: A service instance passes its status probe / is stopped
  - Message: Host name
  - Metadata: server (instance address)

Record Events:

EventRecordPublished / EventRecordDeleted:
  - Published when: A scenario mutates a DNS record
  - Message: The FQDN

# Integration Points

This package integrates with:

  - pkg/scenario: Runner and Env publish the run lifecycle
  - cmd/dnsrig: Subscribes for live progress output

# Design Patterns

Non-Blocking Publish:
  - Publish sends to buffered channel
  - Returns immediately (no waiting)
  - Events may be dropped if buffer full
  - Trade-off: a slow watcher can never stall a run

Fan-Out Pattern:
  - Single event broadcast to all subscribers
  - Each subscriber gets own channel
  - Independent processing rates
  - Full buffers skip to prevent blocking

Fire-and-Forget:
  - No acknowledgment from subscribers
  - No retry on delivery failure
  - Run outcomes that must survive go to the journal, not the broker

# Troubleshooting

Events Not Received:
  - Symptom: Subscriber receives no events
  - Check: broker.Start() called before the run
  - Check: Subscriber goroutine running
  - Solution: Start the broker, subscribe before Runner.Run

Events Dropped:
  - Symptom: Missing events in subscriber
  - Cause: Subscriber buffer full (slow processing)
  - Solution: Drain the channel promptly, do slow work elsewhere

Memory Leak:
  - Symptom: SubscriberCount() grows over time
  - Cause: Subscribers not unsubscribed
  - Solution: Always defer broker.Unsubscribe(sub)

# Limitations

Current Limitations:
  - In-memory only (no persistence)
  - No event replay or history
  - No guaranteed delivery (best effort)
  - No topic-based filtering (all events broadcast)

The journal package is the persistent record of runs; the broker is only
the live feed.

# Best Practices

Do:
  - Always defer broker.Unsubscribe(sub)
  - Process events asynchronously in a goroutine
  - Filter events by type at the subscriber
  - Start the broker before publishing events

Don't:
  - Block in the subscriber event loop
  - Publish events before broker.Start()
  - Rely on event delivery for run verdicts

# See Also

  - pkg/scenario for the runner that publishes the lifecycle
  - pkg/journal for the persistent run record
  - Pub/sub pattern: https://en.wikipedia.org/wiki/Publish%E2%80%93subscribe_pattern
*/
package events
