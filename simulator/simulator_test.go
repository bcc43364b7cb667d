package simulator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franc-net/portal/events"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// Steps with zero duration run immediately.
func instantSteps(names ...string) []Step {
	steps := make([]Step, 0, len(names))
	for _, name := range names {
		steps = append(steps, Step{Name: name})
	}
	return steps
}

func TestRun_PublishesLifecycleEvents(t *testing.T) {
	pub := &fakePublisher{}
	sim := New("Data Center Deployment: dc-east", "CHG-1", "datacenter_CHG-1", pub)

	err := sim.Run(context.Background(), instantSteps("step one", "step two"))
	require.NoError(t, err)

	published := pub.published()
	// Initial status, one per step, final status, completion.
	require.Len(t, published, 5)

	first, ok := published[0].(events.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, events.StatusInProgress, first.Status)
	assert.Equal(t, 0, first.ProgressPercentage)
	assert.Equal(t, "datacenter_CHG-1", first.OriginalRequestID)

	stepTwo, ok := published[2].(events.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, "Executing: step two", stepTwo.StatusMessage)
	assert.Equal(t, 50, stepTwo.ProgressPercentage)

	final, ok := published[3].(events.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, events.StatusCompleted, final.Status)
	assert.Equal(t, 100, final.ProgressPercentage)

	completion, ok := published[4].(events.TaskCompletionEvent)
	require.True(t, ok)
	assert.Equal(t, events.StatusCompleted, completion.CompletionStatus)
	assert.Equal(t, "CHG-1", completion.Key())
}

func TestRun_ProgressCallback(t *testing.T) {
	pub := &fakePublisher{}
	var seen []Progress
	sim := New("task", "CHG-1", "req-1", pub, WithProgressFunc(func(p Progress) {
		seen = append(seen, p)
	}))

	require.NoError(t, sim.Run(context.Background(), instantSteps("a", "b", "c", "d")))

	// One callback per step plus the final 100%.
	require.Len(t, seen, 5)
	assert.Equal(t, Progress{StepIndex: 0, TotalSteps: 4, StepName: "a", Percentage: 0}, seen[0])
	assert.Equal(t, Progress{StepIndex: 2, TotalSteps: 4, StepName: "c", Percentage: 50}, seen[2])
	assert.Equal(t, 100, seen[4].Percentage)
}

func TestRun_CancelledContextFailsTask(t *testing.T) {
	pub := &fakePublisher{}
	sim := New("task", "CHG-1", "req-1", pub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sim.Run(ctx, []Step{{Name: "slow step", Duration: 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")

	published := pub.published()
	last, ok := published[len(published)-1].(events.TaskCompletionEvent)
	require.True(t, ok)
	assert.Equal(t, events.StatusCancelled, last.CompletionStatus)
}

func TestRun_UserIDPropagates(t *testing.T) {
	pub := &fakePublisher{}
	sim := New("task", "CHG-1", "req-1", pub, WithUserID("jdoe"))

	require.NoError(t, sim.Run(context.Background(), instantSteps("a")))

	for _, e := range pub.published() {
		switch ev := e.(type) {
		case events.TaskStatusUpdateEvent:
			assert.Equal(t, "jdoe", ev.UserID)
		case events.TaskCompletionEvent:
			assert.Equal(t, "jdoe", ev.UserID)
		}
	}
}

func TestScripts(t *testing.T) {
	device := DeviceConnectionSteps(4)
	require.Len(t, device, 7)
	assert.Equal(t, "Configuring 4 data interfaces", device[3].Name)

	dc := DataCenterDeploymentSteps("Standard")
	require.Len(t, dc, 9)
	assert.Equal(t, "Applying Standard design pattern", dc[5].Name)

	pop := PopDeploymentSteps("Lumen")
	require.Len(t, pop, 8)
	assert.Equal(t, "Provisioning Lumen infrastructure", pop[1].Name)

	for _, steps := range [][]Step{device, dc, pop} {
		for _, s := range steps {
			assert.NotEmpty(t, s.Name)
			assert.Positive(t, s.Duration)
		}
	}
}
