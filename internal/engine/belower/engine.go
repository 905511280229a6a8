// Package belower compiles instruction graphs into their final ia32 form:
// constraint assurance, register allocation and post-allocation lowering.
package belower

import (
	"context"
	"fmt"
	"sync"

	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/backend/isa/ia32"
	"github.com/faddat/belower/internal/engine/belower/backend/regalloc"
	"github.com/faddat/belower/internal/engine/belower/beapi"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/go-logr/logr"
)

type (
	// Engine compiles function graphs and keeps the compiled functions by name.
	Engine struct {
		cfg beapi.Config
		log logr.Logger

		compiledFunctions map[string]*CompiledFunction
		mux               sync.RWMutex
	}

	// CompiledFunction is a function graph in its final form.
	CompiledFunction struct {
		// Graph is the lowered graph: colored, without Perm nodes and with
		// every frame access bound to its slot.
		Graph *ir.Graph
		// Stats counts the rewrites. Lowering rewrites are only counted
		// when beapi.Config.DoStat is set.
		Stats backend.Stats
		// FrameSize is the size of the stack frame in bytes.
		FrameSize int64
	}

	// worker owns the per-function state reused across the functions it compiles.
	worker struct {
		compiler backend.Compiler
		frame    *backend.Frame
	}
)

// NewEngine returns a new Engine.
func NewEngine(cfg beapi.Config, log logr.Logger) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{cfg: cfg, log: log, compiledFunctions: make(map[string]*CompiledFunction)}
}

// NewEngineFromEnv returns a new Engine configured by beapi.LoadConfig and
// logging to stderr.
func NewEngineFromEnv() *Engine {
	cfg := beapi.LoadConfig()
	return NewEngine(cfg, beapi.NewLogger(nil, cfg.Verbosity))
}

// Name returns the name of the function.
func (cf *CompiledFunction) Name() string { return cf.Graph.Name() }

// Listing returns the textual form of the lowered function.
func (cf *CompiledFunction) Listing() string { return cf.Graph.FormatWith(ia32.FormatNode) }

// Report renders the rewrite counts as a table.
func (cf *CompiledFunction) Report() string { return cf.Stats.Table(cf.Name()) }

func (e *Engine) newWorker() *worker {
	return &worker{
		compiler: backend.NewCompiler(ia32.NewBackend(e.log), regalloc.NewAllocator(e.log), e.log),
		frame:    backend.NewFrame(),
	}
}

func (w *worker) compile(g *ir.Graph, opts backend.LowerOptions) (*CompiledFunction, error) {
	defer func() {
		w.compiler.Reset()
		w.frame.Reset()
	}()
	stats, err := w.compiler.Compile(g, w.frame, opts)
	if err != nil {
		return nil, err
	}
	return &CompiledFunction{Graph: g, Stats: stats, FrameSize: w.frame.Size()}, nil
}

// CompileFunctions compiles graphs concurrently. The graphs are rewritten in
// place and must be distinct. The returned slice is indexed like graphs; a
// function failing to compile leaves a nil entry and the others are still
// compiled and registered. The error of the first failing graph is returned.
func (e *Engine) CompileFunctions(ctx context.Context, graphs []*ir.Graph) ([]*CompiledFunction, error) {
	ret := make([]*CompiledFunction, len(graphs))
	errs := make([]error, len(graphs))
	opts := backend.LowerOptions{DoCopy: e.cfg.DoCopy, DoStat: e.cfg.DoStat}

	indices := make(chan int)
	var wg sync.WaitGroup
	workers := e.cfg.Workers
	if workers > len(graphs) {
		workers = len(graphs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := e.newWorker()
			for i := range indices {
				g := graphs[i]
				if err := ctx.Err(); err != nil {
					errs[i] = fmt.Errorf("%s: %w", g.Name(), err)
					continue
				}
				cf, err := w.compile(g, opts)
				if err != nil {
					errs[i] = fmt.Errorf("%s: %w", g.Name(), err)
					e.log.Error(err, "failed to compile function", "function", g.Name())
					continue
				}
				ret[i] = cf
				e.log.Info("compiled function", "function", g.Name(), "frame", cf.FrameSize, "rewrites", cf.Stats.Total())
				if e.cfg.Debug {
					e.log.V(1).Info("lowered function", "function", g.Name(), "listing", cf.Listing())
				}
			}
		}()
	}
	for i := range graphs {
		indices <- i
	}
	close(indices)
	wg.Wait()

	for _, cf := range ret {
		if cf != nil {
			e.addCompiledFunction(cf)
		}
	}
	for _, err := range errs {
		if err != nil {
			return ret, err
		}
	}
	return ret, nil
}

// CompiledFunctionCount returns the number of registered functions.
func (e *Engine) CompiledFunctionCount() uint32 {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return uint32(len(e.compiledFunctions))
}

// Lookup returns the compiled function called name.
func (e *Engine) Lookup(name string) (*CompiledFunction, bool) {
	e.mux.RLock()
	defer e.mux.RUnlock()
	cf, ok := e.compiledFunctions[name]
	return cf, ok
}

// DeleteCompiledFunction removes the function called name.
func (e *Engine) DeleteCompiledFunction(name string) {
	e.mux.Lock()
	defer e.mux.Unlock()
	delete(e.compiledFunctions, name)
}

func (e *Engine) addCompiledFunction(cf *CompiledFunction) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.compiledFunctions[cf.Name()] = cf
}
