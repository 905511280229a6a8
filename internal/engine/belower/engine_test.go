package belower

import (
	"context"
	"errors"

	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/backend/isa/ia32"
	"github.com/faddat/belower/internal/engine/belower/beapi"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/faddat/belower/internal/engine/belower/testcases"
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func graphsOf(tcs ...testcases.TestCase) (ret []*ir.Graph) {
	for _, tc := range tcs {
		ret = append(ret, tc.Graph(true))
	}
	return
}

var _ = Describe("Engine", func() {
	var (
		ctx context.Context
		e   *Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		e = NewEngine(beapi.Config{DoCopy: true, DoStat: true, Workers: 4}, logr.Discard())
	})

	It("should compile every test case", func() {
		graphs := graphsOf(testcases.All...)
		compiled, err := e.CompileFunctions(ctx, graphs)

		Expect(err).NotTo(HaveOccurred())
		Expect(compiled).To(HaveLen(len(testcases.All)))
		Expect(e.CompiledFunctionCount()).To(Equal(uint32(len(testcases.All))))

		m := ia32.NewBackend(logr.Discard())
		for i, tc := range testcases.All {
			cf, ok := e.Lookup(tc.Name)
			Expect(ok).To(BeTrue())
			Expect(cf).To(BeIdenticalTo(compiled[i]))
			Expect(cf.Graph).To(BeIdenticalTo(graphs[i]))
			Expect(testcases.CheckAllocation(cf.Graph, m)).To(Succeed())
			Expect(cf.Listing()).To(MatchRegexp(`\tReturn (AX|X0)\n`))
		}
	})

	It("should bind frame slots", func() {
		compiled, err := e.CompileFunctions(ctx, graphsOf(testcases.SpillReload))

		Expect(err).NotTo(HaveOccurred())
		cf := compiled[0]
		Expect(cf.FrameSize).To(Equal(int64(16)))
		Expect(cf.Stats.Get(backend.StatFrameBinding)).To(Equal(2))
		Expect(cf.Report()).To(ContainSubstring(backend.StatFrameBinding.String()))
		Expect(cf.Listing()).To(ContainSubstring("Reload[AM S]"))
	})

	It("should report the failing function and keep the others", func() {
		compiled, err := e.CompileFunctions(ctx, graphsOf(testcases.AddSwap, testcases.TooManyLive, testcases.ShiftCount))

		Expect(err).To(MatchError(ContainSubstring("too_many_live: regalloc: no register left")))
		Expect(compiled[0]).NotTo(BeNil())
		Expect(compiled[1]).To(BeNil())
		Expect(compiled[2]).NotTo(BeNil())
		Expect(e.CompiledFunctionCount()).To(Equal(uint32(2)))
		_, ok := e.Lookup(testcases.TooManyLive.Name)
		Expect(ok).To(BeFalse())
	})

	It("should return broken invariants as errors", func() {
		graphs := graphsOf(testcases.ShiftCount)
		arg := graphs[0].Nodes()[0]
		ia32.AttrOf(arg).SetOutReg(0, ia32.EBX)

		_, err := e.CompileFunctions(ctx, graphs)

		var ie *backend.InvariantError
		Expect(errors.As(err, &ie)).To(BeTrue())
		Expect(ie.Node).To(Equal(arg.String()))
		Expect(err).To(MatchError("shift_count: BUG: Arg#0: assigned_registers: slot 0 already holds BX"))
	})

	It("should stop when the context is done", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		compiled, err := e.CompileFunctions(cctx, graphsOf(testcases.AddSwap))

		Expect(err).To(MatchError(context.Canceled))
		Expect(compiled[0]).To(BeNil())
		Expect(e.CompiledFunctionCount()).To(BeZero())
	})

	It("should delete compiled functions", func() {
		_, err := e.CompileFunctions(ctx, graphsOf(testcases.AddSwap, testcases.AddCopy))
		Expect(err).NotTo(HaveOccurred())

		e.DeleteCompiledFunction(testcases.AddSwap.Name)
		Expect(e.CompiledFunctionCount()).To(Equal(uint32(1)))
		_, ok := e.Lookup(testcases.AddSwap.Name)
		Expect(ok).To(BeFalse())

		e.DeleteCompiledFunction("missing")
		Expect(e.CompiledFunctionCount()).To(Equal(uint32(1)))
	})

	It("should load its configuration from the environment", func() {
		e = NewEngineFromEnv()
		Expect(e.cfg.Workers).To(BeNumerically(">=", 1))
		Expect(e.CompiledFunctionCount()).To(BeZero())
	})

	It("should compile with a single worker and no statistics", func() {
		e = NewEngine(beapi.Config{DoCopy: true}, logr.Discard())
		compiled, err := e.CompileFunctions(ctx, graphsOf(testcases.DivMod, testcases.MulPinnedResult))

		Expect(err).NotTo(HaveOccurred())
		Expect(compiled[0].Stats.Get(backend.StatRepairSwap)).To(BeZero())
		Expect(compiled[1].Stats.Get(backend.StatPinCopy)).To(Equal(1))
	})
})
