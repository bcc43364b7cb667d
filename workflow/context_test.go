package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_SetRejectsOverwrite(t *testing.T) {
	wc := newContext(map[string]any{"branch_name": "implement_chg-1"})

	require.NoError(t, wc.Set("metro_id", "m-1"))

	err := wc.Set("metro_id", "m-2")
	require.ErrorIs(t, err, ErrKeyExists)

	// The original value is untouched.
	v, ok := wc.Get("metro_id")
	require.True(t, ok)
	assert.Equal(t, "m-1", v)

	// Seeded keys are protected too.
	require.ErrorIs(t, wc.Set("branch_name", "other"), ErrKeyExists)
}

func TestContext_String(t *testing.T) {
	wc := newContext(map[string]any{"branch_name": "b", "count": 3})

	assert.Equal(t, "b", wc.String("branch_name"))
	assert.Equal(t, "", wc.String("count"))
	assert.Equal(t, "", wc.String("missing"))
}

func TestContext_LogsAreCopies(t *testing.T) {
	wc := newContext(nil)
	wc.recordObject(StepResult{Step: "A", Status: StepSuccess})

	objects := wc.CreatedObjects()
	objects[0].Step = "mutated"

	assert.Equal(t, "A", wc.CreatedObjects()[0].Step)
}
