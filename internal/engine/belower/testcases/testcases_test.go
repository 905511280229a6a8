package testcases

import (
	"testing"

	"github.com/faddat/belower/internal/engine/belower/backend"
	"github.com/faddat/belower/internal/engine/belower/backend/isa/ia32"
	"github.com/faddat/belower/internal/engine/belower/ir"
	"github.com/faddat/belower/internal/testing/require"
	"github.com/go-logr/logr"
)

func TestCheckAllocation(t *testing.T) {
	build := func() (*ir.Graph, *ir.Node, *ir.Node, *ir.Node) {
		g := ir.NewGraph("check")
		b := ia32.NewBuilder(g, false)
		b.SetBlock(g.AllocateBlock())
		cnt := b.Arg(ir.ModeI32, nil)
		x := b.Arg(ir.ModeI32, nil)
		shl := b.Shl(cnt.Result(0), x.Result(0))
		b.Keep(shl.Result(0))
		return g, cnt, x, shl
	}

	for _, tc := range []struct {
		name           string
		cnt, x, result *backend.Register
		expErr         string
	}{
		{name: "valid", cnt: ia32.ECX, x: ia32.EAX, result: ia32.EAX},
		{name: "result like its count", cnt: ia32.ECX, x: ia32.ECX, result: ia32.ECX, expErr: "Shl#2: result 0 in CX like operand 0"},
		{name: "broken tie", cnt: ia32.ECX, x: ia32.EAX, result: ia32.EDX, expErr: "Shl#2: result 0 in DX but operand 1 is not"},
		{name: "count outside CX", cnt: ia32.EBX, x: ia32.EAX, result: ia32.EAX, expErr: "Shl#2: operand 0 in BX violates gp {CX}"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			m := ia32.NewBackend(logr.Discard())
			g, cnt, x, shl := build()
			m.SetOutReg(cnt, 0, tc.cnt)
			m.SetOutReg(x, 0, tc.x)
			m.SetOutReg(shl, 0, tc.result)

			err := CheckAllocation(g, m)
			if tc.expErr == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tc.expErr)
			}
		})
	}
}
