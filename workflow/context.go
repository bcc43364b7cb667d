package workflow

import (
	"errors"
	"fmt"
)

// ErrKeyExists is returned by Context.Set when a key was already written by
// an earlier step. Reference keys are write-once; only the reserved
// created-object and error logs accumulate, and those are append-only.
var ErrKeyExists = errors.New("context key already set")

// Context is the shared mutable state of a single workflow execution. It is
// created by Execute, seeded with the caller's initial values, and owned
// exclusively by that execution for its lifetime. Context steps read and
// write it directly; bound steps never see it.
type Context struct {
	values  map[string]any
	objects []StepResult
	errs    []StepError
}

func newContext(initial map[string]any) *Context {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Context{values: values}
}

// Set stores a value under key. Writing a key that already exists is an
// error: a step must not silently overwrite a reference another step
// created.
func (c *Context) Set(key string, value any) error {
	if _, exists := c.values[key]; exists {
		return fmt.Errorf("%w: %q", ErrKeyExists, key)
	}
	c.values[key] = value
	return nil
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// String returns the value under key as a string, or "" if the key is
// missing or holds a non-string.
func (c *Context) String(key string) string {
	if v, ok := c.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// CreatedObjects returns a copy of the per-step outcome log, one entry per
// attempted step in execution order.
func (c *Context) CreatedObjects() []StepResult {
	out := make([]StepResult, len(c.objects))
	copy(out, c.objects)
	return out
}

// Errors returns a copy of the error log.
func (c *Context) Errors() []StepError {
	out := make([]StepError, len(c.errs))
	copy(out, c.errs)
	return out
}

func (c *Context) recordObject(r StepResult) {
	c.objects = append(c.objects, r)
}

func (c *Context) recordError(e StepError) {
	c.errs = append(c.errs, e)
}
