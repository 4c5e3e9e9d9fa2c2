package workflow

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/osint-cli/internal/extract"
	"github.com/sells-group/osint-cli/internal/model"
	"github.com/sells-group/osint-cli/internal/store"
	"github.com/sells-group/osint-cli/pkg/search"
)

// MemoryIndex is the document index queried by the scholar branch.
type MemoryIndex interface {
	Query(ctx context.Context, query string) ([]string, error)
}

// Engine executes the briefing graph. It is the sole writer of run state;
// nodes receive a read-only view and return typed results.
type Engine struct {
	invoker       *extract.Invoker
	search        search.Client
	memory        MemoryIndex
	store         store.Store
	branchTimeout time.Duration
}

// NewEngine wires the engine's collaborators. branchTimeout bounds each
// collection branch; zero means 60 seconds.
func NewEngine(invoker *extract.Invoker, searchClient search.Client, mem MemoryIndex, st store.Store, branchTimeout time.Duration) *Engine {
	mustValidateGraph()
	if branchTimeout <= 0 {
		branchTimeout = 60 * time.Second
	}
	return &Engine{
		invoker:       invoker,
		search:        searchClient,
		memory:        mem,
		store:         st,
		branchTimeout: branchTimeout,
	}
}

// Run executes the full graph over a conversation and returns the final
// state. A rejected gate short-circuits with a refusal turn; branch
// failures degrade to empty results; synthesis schema violations and
// store failures abort the run.
func (e *Engine) Run(ctx context.Context, conversation []model.Turn) (*model.State, error) {
	state := model.NewState(conversation)
	start := time.Now()

	decision, err := e.runGate(ctx, state)
	if err != nil {
		return nil, err
	}
	state.Gate = decision
	if decision == model.GateRejected {
		state.Append(model.RoleAnalyst, refusalMessage)
		zap.L().Info("query rejected by gate")
		return state, nil
	}

	state.Route = e.runRoute(ctx, state)

	if err := e.runBranches(ctx, state); err != nil {
		return nil, err
	}

	briefing, err := e.runSynthesize(ctx, state)
	if err != nil {
		return nil, err
	}
	state.FinalTopic = briefing.Topic
	state.FinalContent = briefing.Content
	state.Append(model.RoleAnalyst, briefing.Content)

	state.Entities = e.runExtractEntities(ctx, state)

	if err := e.runPersist(ctx, state); err != nil {
		return nil, err
	}

	zap.L().Info("briefing run complete",
		zap.String("briefing_id", state.BriefingID),
		zap.String("topic", state.FinalTopic),
		zap.String("route", string(state.Route)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return state, nil
}

// runBranches fans out the three collection branches, applies their typed
// results to state, and asserts the join is complete before synthesis.
func (e *Engine) runBranches(ctx context.Context, state *model.State) error {
	branches := []func(context.Context, *model.State) *branchResult{
		e.runScout,
		e.runScholar,
		e.runCartographer,
	}

	results := make([]*branchResult, len(branches))
	g, groupCtx := errgroup.WithContext(ctx)
	for i, fn := range branches {
		g.Go(func() error {
			branchCtx, cancel := context.WithTimeout(groupCtx, e.branchTimeout)
			defer cancel()
			results[i] = fn(branchCtx, state)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "workflow: canceled during collection")
	}

	var done fieldMask
	for _, res := range results {
		if res == nil {
			continue
		}
		switch res.branch {
		case model.BranchScout, model.BranchScholar:
			state.Retrieval[res.branch] = res.retrieval
		case model.BranchCartographer:
			state.Locations = res.locations
		}
		done |= branchBit[res.branch]
	}
	if done != allBranches {
		return eris.Errorf("workflow: join incomplete: have %09b, want %09b", done, allBranches)
	}
	return nil
}
