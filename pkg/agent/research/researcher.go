package research

import (
	"context"

	"desirefinder-be/internal/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type Output struct {
	// Findings are every action's chunks, in registry order.
	Findings []Chunk
	Results  map[string]Result
	Failed   map[string]error
}

type Researcher struct {
	registry *Registry
	logger   logger.ILogger
}

func NewResearcher(registry *Registry, logger logger.ILogger) *Researcher {
	return &Researcher{registry: registry, logger: logger}
}

// Research runs every enabled action concurrently. An action's failure is
// recorded and logged; siblings keep running.
func (r *Researcher) Research(ctx context.Context, rc *Context) Output {
	actions := r.registry.Enabled(rc.Config, rc.Classification)

	results := make([]Result, len(actions))
	errs := make([]error, len(actions))

	var g errgroup.Group
	for i, a := range actions {
		g.Go(func() error {
			results[i], errs[i] = run(ctx, a, rc)
			return nil
		})
	}
	_ = g.Wait()

	out := Output{
		Results: make(map[string]Result, len(actions)),
		Failed:  make(map[string]error),
	}
	for i, a := range actions {
		if errs[i] != nil {
			out.Failed[a.Name] = errs[i]
			r.logger.Error("RESEARCH", "Action failed", map[string]interface{}{
				"action":     a.Name,
				"session_id": rc.Session.ID(),
				"error":      errs[i].Error(),
			})
			continue
		}
		out.Results[a.Name] = results[i]
		out.Findings = append(out.Findings, results[i].Chunks...)
	}
	return out
}
