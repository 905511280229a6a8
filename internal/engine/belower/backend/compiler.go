package backend

import (
	"fmt"

	"github.com/faddat/belower/internal/engine/belower/beapi"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/go-logr/logr"
)

// NewCompiler returns a new Compiler running the constraint passes of mach
// around alloc.
//
// The type parameter T must be a type that implements Machine.
func NewCompiler[T Machine](mach T, alloc Allocator, log logr.Logger) Compiler {
	return &compiler[T]{mach: mach, alloc: alloc, log: log}
}

// Compiler drives one function graph through constraint assurance, register
// allocation and post-allocation lowering.
type Compiler interface {
	// Compile rewrites g in place into its final, allocator-free form.
	// A broken backend invariant aborts the function and is returned as *InvariantError.
	Compile(g *ir.Graph, layout FrameLayout, opts LowerOptions) (Stats, error)

	// Reset should be called to allow this Compiler to use for the next function.
	Reset()
}

type compiler[T Machine] struct {
	mach  T
	alloc Allocator
	log   logr.Logger
}

// Compile implements Compiler.Compile.
func (c *compiler[T]) Compile(g *ir.Graph, layout FrameLayout, opts LowerOptions) (stats Stats, err error) {
	defer RecoverInvariant(&err)

	stats.Merge(c.mach.AssureConstraints(g))
	if beapi.PrintAssuredGraph {
		fmt.Printf("[[[after constraint assurance for %s]]]\n%s\n", g.Name(), c.mach.Format(g))
	}

	if err = c.alloc.Allocate(g, c.mach); err != nil {
		return stats, fmt.Errorf("regalloc: %w", err)
	}
	if beapi.PrintAllocatedGraph {
		fmt.Printf("[[[after register allocation for %s]]]\n%s\n", g.Name(), c.mach.Format(g))
	}

	stats.Merge(c.mach.LowerAfterRA(g, layout, opts))
	if beapi.PrintLoweredGraph {
		fmt.Printf("[[[after lowering for %s]]]\n%s\n", g.Name(), c.mach.Format(g))
	}

	c.log.V(1).Info("compiled function", "function", g.Name(), "nodes", len(g.Nodes()), "rewrites", stats.Total())
	return stats, nil
}

// Reset implements Compiler.Reset.
func (c *compiler[T]) Reset() {
	c.mach.Reset()
}
