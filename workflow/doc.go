// Package workflow provides a sequential multi-step execution engine for
// change-request workflows against the infrastructure backend.
//
// An Engine holds an ordered list of named steps. Steps come in two calling
// conventions, fixed at registration time:
//
//   - Bound steps (AddStep) receive only a context.Context. Their inputs are
//     captured when the step is registered, so their dependencies are
//     explicit.
//   - Context steps (AddContextStep) additionally receive the shared
//     *Context for the execution. They thread references between steps by
//     storing created objects under agreed keys and reading them back in
//     later steps.
//
// Both conventions coexist in one engine; dispatch is decided solely by
// which registration method was used.
//
// Execute runs the steps strictly in registration order and stops at the
// first failure. Every step is assumed load-bearing: a dependent object
// cannot be created if its prerequisite failed, so there is no value in
// continuing, and later steps would observe an incomplete context. The
// returned Result is a complete audit trail of the steps that were
// attempted, whatever the outcome.
//
// Example:
//
//	eng := workflow.New("Data Center Deployment")
//	eng.AddStep("Creating deployment branch", func(ctx context.Context) (any, error) {
//	    return client.CreateBranch(ctx, branchName, false)
//	})
//	eng.AddContextStep("Creating metro location", func(ctx context.Context, wc *workflow.Context) (workflow.Record, error) {
//	    metro, err := client.CreateObject(ctx, "LocationMetro", branchName, fields)
//	    if err != nil {
//	        return workflow.Record{}, err
//	    }
//	    if err := wc.Set("metro_location_id", metro.ID); err != nil {
//	        return workflow.Record{}, err
//	    }
//	    return workflow.NewRecord(metro), nil
//	})
//	result := eng.Execute(ctx, map[string]any{"branch_name": branchName})
package workflow
