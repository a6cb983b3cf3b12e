package invoker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFunction records how it was called and returns canned values.
type stubFunction struct {
	name    string
	gotICtx InvocationContext
	gotIn   Payload
	out     Payload
	err     error
}

func (f *stubFunction) Name() string { return f.name }

func (f *stubFunction) Handle(ctx context.Context, ictx InvocationContext, payload Payload) (Payload, error) {
	f.gotICtx = ictx
	f.gotIn = payload
	return f.out, f.err
}

func TestInvoker_Invoke_Success(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inv := New(nil, WithClock(func() time.Time { return fixed }))

	fn := &stubFunction{
		name: "matchmaker",
		out:  Payload{"matches": 3},
	}

	result, err := inv.Invoke(context.Background(), fn, Payload{"athletes": 5})
	require.NoError(t, err)
	assert.Equal(t, Payload{"matches": 3}, result)

	// 呼び出しコンテキストが注入される
	assert.Equal(t, "matchmaker", fn.gotICtx.FunctionName)
	assert.NotEmpty(t, fn.gotICtx.InvocationID)
	assert.Equal(t, fixed, fn.gotICtx.InvokedAt)
	assert.Equal(t, Payload{"athletes": 5}, fn.gotIn)
}

func TestInvoker_Invoke_Error(t *testing.T) {
	inv := New(nil)
	wantErr := errors.New("boom")
	fn := &stubFunction{name: "validator", err: wantErr}

	result, err := inv.Invoke(context.Background(), fn, Payload{})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Contains(t, err.Error(), "validator")
}

func TestInvoker_Invoke_UniqueInvocationIDs(t *testing.T) {
	inv := New(nil)
	fn := &stubFunction{name: "scheduler", out: Payload{}}

	_, err := inv.Invoke(context.Background(), fn, Payload{})
	require.NoError(t, err)
	first := fn.gotICtx.InvocationID

	_, err = inv.Invoke(context.Background(), fn, Payload{})
	require.NoError(t, err)
	second := fn.gotICtx.InvocationID

	assert.NotEqual(t, first, second)
}

func TestInvoker_Invoke_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	inv := New(nil, WithMetrics(metrics))

	_, err := inv.Invoke(context.Background(), &stubFunction{name: "historian", out: Payload{}}, Payload{})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), &stubFunction{name: "historian", err: errors.New("fail")}, Payload{})
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	var sawCounter bool
	for _, mf := range families {
		if mf.GetName() == "function_invocations_total" {
			sawCounter = true
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			assert.Equal(t, 2.0, total)
		}
	}
	assert.True(t, sawCounter, "function_invocations_total should be registered")
}
