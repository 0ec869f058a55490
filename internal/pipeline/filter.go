package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pathwise/pathwise/internal/plan"
)

// filterResources checks every resource URL and drops the ones that fail.
// All resources of one step are checked concurrently, bounded by the
// step's own resource count and deadline; steps are processed in order.
// URL-less resources pass through unfiltered. A step emptied by filtering
// gets one synthetic search resource so the step invariant (at least one
// resource) holds. Returns the number of resources dropped.
func (o *Orchestrator) filterResources(ctx context.Context, p *plan.Plan) int {
	dropped := 0
	for i := range p.Steps {
		dropped += o.filterStep(ctx, &p.Steps[i])
	}
	return dropped
}

func (o *Orchestrator) filterStep(ctx context.Context, step *plan.Step) int {
	stepCtx, cancel := context.WithTimeout(ctx, o.opts.StepFilterTimeout)
	defer cancel()

	keep := make([]bool, len(step.Resources))
	g, gctx := errgroup.WithContext(stepCtx)
	for i := range step.Resources {
		i := i
		res := step.Resources[i]
		if res.URL == "" {
			keep[i] = true
			continue
		}
		g.Go(func() error {
			// A check abandoned by the step deadline reads as invalid;
			// the resource is dropped rather than blocking the response.
			keep[i] = o.checker.Check(gctx, res.URL, res.Kind)
			return nil
		})
	}
	_ = g.Wait()

	filtered := step.Resources[:0]
	dropped := 0
	for i, res := range step.Resources {
		if keep[i] {
			filtered = append(filtered, res)
		} else {
			dropped++
		}
	}
	step.Resources = filtered

	if len(step.Resources) == 0 {
		step.Resources = []plan.Resource{plan.SearchResource(step.Title)}
	}
	return dropped
}
