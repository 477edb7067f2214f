// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package host

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/rainlanguage/rain.interpreter/go/rain"
	"github.com/rainlanguage/rain.interpreter/go/state"
	"github.com/rainlanguage/rain.interpreter/go/trace"
	"github.com/sirupsen/logrus"
	"go.uber.org/mock/gomock"
)

var (
	sender   = rain.Address{0xCA}
	constant = rain.Address{0x01}
	storage  = rain.Address{0x02}
	reverter = rain.Address{0x03}
	invalid  = rain.Address{0x04}
	emitter  = rain.Address{0x05}
)

// asm assembles EVM byte code from opcodes, immediate bytes and addresses.
func asm(parts ...any) []byte {
	var res []byte
	for _, part := range parts {
		switch p := part.(type) {
		case geth.OpCode:
			res = append(res, byte(p))
		case int:
			res = append(res, byte(p))
		case rain.Address:
			res = append(res, p[:]...)
		default:
			panic("unsupported part")
		}
	}
	return res
}

func testHeader() *types.Header {
	return &types.Header{
		Number:     big.NewInt(1000),
		Time:       1700000000,
		GasLimit:   30_000_000,
		Difficulty: big.NewInt(0),
		BaseFee:    big.NewInt(7),
	}
}

func newTestSource() *state.MemorySource {
	source := state.NewMemorySource()

	// returns the word 42
	source.SetCode(constant, asm(
		geth.PUSH1, 42, geth.PUSH1, 0, geth.MSTORE,
		geth.PUSH1, 32, geth.PUSH1, 0, geth.RETURN,
	))

	// without input: returns slot 1; with input: stores the first input word in slot 1
	source.SetCode(storage, asm(
		geth.CALLDATASIZE, geth.PUSH1, 15, geth.JUMPI,
		geth.PUSH1, 1, geth.SLOAD, geth.PUSH1, 0, geth.MSTORE,
		geth.PUSH1, 32, geth.PUSH1, 0, geth.RETURN,
		geth.JUMPDEST, geth.PUSH1, 0, geth.CALLDATALOAD, geth.PUSH1, 1, geth.SSTORE, geth.STOP,
	))

	// stores 1 in slot 1 and reverts with the word 42
	source.SetCode(reverter, asm(
		geth.PUSH1, 1, geth.PUSH1, 1, geth.SSTORE,
		geth.PUSH1, 42, geth.PUSH1, 0, geth.MSTORE,
		geth.PUSH1, 32, geth.PUSH1, 0, geth.REVERT,
	))

	source.SetCode(invalid, asm(geth.INVALID))

	// sends the trace (0, 0, [3]) to the tracer
	source.SetCode(emitter, asm(
		geth.PUSH1, 3, geth.PUSH1, 4, geth.MSTORE,
		geth.PUSH1, 0, geth.PUSH1, 0, geth.PUSH1, 36, geth.PUSH1, 0,
		geth.PUSH20, rain.TracerAddress, geth.GAS, geth.STATICCALL, geth.POP,
		geth.STOP,
	))
	return source
}

func newTestHost(source state.Source) *Host {
	return New(logrus.New(), state.NewOverlay(source), big.NewInt(1), testHeader(), 0)
}

func TestHost_CallReturnsOutput(t *testing.T) {
	host := newTestHost(newTestSource())

	result, err := host.Call(context.Background(), sender, constant, nil, rain.Word{})
	if err != nil {
		t.Fatalf("failed to call: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("unexpected exit %v", result.Exit)
	}
	if want, got := rain.NewWord(42), rain.Word(result.Output); want != got {
		t.Errorf("unexpected output, wanted %v, got %v", want, got)
	}
	if result.GasUsed < 21_000 {
		t.Errorf("gas used must include intrinsic gas, got %d", result.GasUsed)
	}
	if want, got := 1, result.Trace.Len(); want != got {
		t.Errorf("unexpected number of frames, wanted %d, got %d", want, got)
	}
}

func TestHost_CallDropsWritesCommitKeepsThem(t *testing.T) {
	host := newTestHost(newTestSource())
	ctx := context.Background()
	value := rain.NewWord(7)

	read := func() rain.Word {
		t.Helper()
		result, err := host.Call(ctx, sender, storage, nil, rain.Word{})
		if err != nil || !result.Succeeded() {
			t.Fatalf("failed to read slot: %v, %v", err, result)
		}
		return rain.Word(result.Output)
	}

	if result, err := host.Call(ctx, sender, storage, value[:], rain.Word{}); err != nil || !result.Succeeded() {
		t.Fatalf("failed to call: %v, %v", err, result)
	}
	if want, got := (rain.Word{}), read(); want != got {
		t.Errorf("writes of a read call must be dropped, got %v", got)
	}

	if result, err := host.Commit(ctx, sender, storage, value[:], rain.Word{}); err != nil || !result.Succeeded() {
		t.Fatalf("failed to commit: %v, %v", err, result)
	}
	if want, got := value, read(); want != got {
		t.Errorf("committed write is not visible, wanted %v, got %v", want, got)
	}
}

func TestHost_RevertedCommitLeavesOverlayUnchanged(t *testing.T) {
	host := newTestHost(newTestSource())

	result, err := host.Commit(context.Background(), sender, reverter, nil, rain.Word{})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if want, got := Revert, result.Exit.Kind; want != got {
		t.Fatalf("unexpected exit, wanted %v, got %v", want, got)
	}
	if want, got := rain.NewWord(42), rain.Word(result.Output); want != got {
		t.Errorf("unexpected revert payload, wanted %v, got %v", want, got)
	}
	if result.Err() != nil {
		t.Errorf("reverts are not errors")
	}

	value, err := host.Overlay().Storage(context.Background(), reverter, rain.NewWord(1))
	if err != nil || value != (rain.Word{}) {
		t.Errorf("reverted write reached the overlay: %v, %v", value, err)
	}
	if info, _ := host.Overlay().Account(context.Background(), sender); info != nil {
		t.Errorf("nonce of reverted commit reached the overlay: %v", info)
	}
}

func TestHost_InvalidOpcodeHalts(t *testing.T) {
	host := newTestHost(newTestSource())

	result, err := host.Call(context.Background(), sender, invalid, nil, rain.Word{})
	if err != nil {
		t.Fatalf("failed to call: %v", err)
	}
	if want, got := Halt, result.Exit.Kind; want != got {
		t.Fatalf("unexpected exit, wanted %v, got %v", want, got)
	}
	var halt *HaltError
	if !errors.As(result.Err(), &halt) {
		t.Fatalf("expected a halt error, got %v", result.Err())
	}
	var invalidOp *geth.ErrInvalidOpCode
	if !errors.As(halt, &invalidOp) {
		t.Errorf("expected invalid opcode cause, got %v", halt.Cause)
	}
	if halt.Trace.Len() != 1 {
		t.Errorf("halt must carry the recorded frames")
	}
}

func TestHost_TracerCallsAreRecordedAndNeverExecuted(t *testing.T) {
	host := newTestHost(newTestSource())

	result, err := host.Commit(context.Background(), sender, emitter, nil, rain.Word{})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("unexpected exit %v", result.Exit)
	}

	nodes := result.Trace.Nodes()
	if want, got := 2, len(nodes); want != got {
		t.Fatalf("unexpected number of frames, wanted %d, got %d", want, got)
	}
	tracerCall := nodes[1]
	if tracerCall.Address != rain.TracerAddress || tracerCall.Kind != trace.StaticCall || tracerCall.Depth != 1 {
		t.Errorf("unexpected tracer frame %+v", tracerCall)
	}
	if tracerCall.Reverted || len(tracerCall.Output) != 0 {
		t.Errorf("tracer call must succeed without output")
	}

	traces := trace.SourceTraces(nodes)
	if want, got := 1, len(traces); want != got {
		t.Fatalf("unexpected number of traces, wanted %d, got %d", want, got)
	}
	if traces[0].ParentSource != 0 || traces[0].Source != 0 || len(traces[0].Stack) != 1 || traces[0].Stack[0] != rain.NewWord(3) {
		t.Errorf("unexpected trace %v", traces[0])
	}

	if info, _ := host.Overlay().Account(context.Background(), rain.TracerAddress); info != nil {
		t.Errorf("tracer must never be created, got %v", info)
	}
}

func TestHost_FetchFailuresAreReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := state.NewMockSource(ctrl)
	injected := errors.New("injected")
	source.EXPECT().GetAccount(gomock.Any(), gomock.Any()).Return(nil, injected).AnyTimes()

	host := newTestHost(source)
	if _, err := host.Call(context.Background(), sender, constant, nil, rain.Word{}); !errors.Is(err, injected) {
		t.Errorf("expected %v, got %v", injected, err)
	}
}

func TestHost_CancelledContextIsReported(t *testing.T) {
	host := newTestHost(newTestSource())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := host.Call(ctx, sender, constant, nil, rain.Word{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected %v, got %v", context.Canceled, err)
	}
}

func TestHost_GasLimitIsEnforced(t *testing.T) {
	host := New(logrus.New(), state.NewOverlay(newTestSource()), big.NewInt(1), testHeader(), 21_010)

	result, err := host.Call(context.Background(), sender, constant, nil, rain.Word{})
	if err != nil {
		t.Fatalf("failed to call: %v", err)
	}
	if want, got := Halt, result.Exit.Kind; want != got {
		t.Fatalf("unexpected exit, wanted %v, got %v", want, got)
	}
	if !errors.Is(result.Exit.Cause, geth.ErrOutOfGas) {
		t.Errorf("expected out of gas, got %v", result.Exit.Cause)
	}
}

func TestIntrinsicGas(t *testing.T) {
	tests := map[string]struct {
		input []byte
		want  uint64
	}{
		"empty":    {nil, 21_000},
		"zeros":    {make([]byte, 4), 21_000 + 4*4},
		"nonzeros": {bytes.Repeat([]byte{1}, 4), 21_000 + 4*16},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := IntrinsicGas(test.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if test.want != got {
				t.Errorf("unexpected gas, wanted %d, got %d", test.want, got)
			}
		})
	}

	if _, err := chargeIntrinsicGas(100, nil); !errors.Is(err, ErrIntrinsicGas) {
		t.Errorf("expected %v, got %v", ErrIntrinsicGas, err)
	}
}
