package gateway

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver struct {
	id    int64
	err   error
	calls int
	seen  string
}

func (s *staticResolver) Resolve(_ context.Context, handle string) (int64, error) {
	s.calls++
	s.seen = handle
	return s.id, s.err
}

func TestChainResolver_FallsBackInOrder(t *testing.T) {
	primary := &staticResolver{err: errors.New("chat not found")}
	fallback := &staticResolver{id: 4242}
	chain := NewChainResolver(logrus.New(), primary, fallback)

	id, err := chain.Resolve(context.Background(), "@scammeruser")
	require.NoError(t, err)
	assert.Equal(t, int64(4242), id)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, "scammeruser", fallback.seen)
}

func TestChainResolver_StopsAtFirstSuccess(t *testing.T) {
	primary := &staticResolver{id: 7}
	fallback := &staticResolver{id: 8}
	chain := NewChainResolver(nil, primary, fallback)

	id, err := chain.Resolve(context.Background(), "scammeruser")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Zero(t, fallback.calls)
}

func TestChainResolver_AllFail(t *testing.T) {
	var missing *CommandResolver
	chain := NewChainResolver(nil, &staticResolver{err: ErrUnresolved}, missing, &staticResolver{id: -5})

	_, err := chain.Resolve(context.Background(), "scammeruser")
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestNewCommandResolver_Empty(t *testing.T) {
	assert.Nil(t, NewCommandResolver("   ", time.Second))
}

func TestCommandResolver_ParsesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX echo")
	}
	r := NewCommandResolver("echo 123456", time.Second)
	id, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), id)
}

func TestCommandResolver_NonNumericOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX echo")
	}
	r := NewCommandResolver("echo ERROR:", time.Second)
	_, err := r.Resolve(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUnresolved)
}
