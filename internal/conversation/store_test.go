package conversation

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client),
	}
}

func TestStores_RoundTrip(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.Get(ctx, 111)
			require.NoError(t, err)
			assert.False(t, ok)

			state := State{
				UserID: 111,
				Step:   StepAmount,
				Draft:  Draft{Scammer: "scammeruser", ScammerID: sql.NullInt64{Int64: 5550001, Valid: true}},
			}
			require.NoError(t, store.Put(ctx, state))

			got, ok, err := store.Get(ctx, 111)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, state, got)

			require.NoError(t, store.Delete(ctx, 111))
			_, ok, err = store.Get(ctx, 111)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRedisStore_AbsentScammerIDStaysAbsent(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, State{UserID: 7, Step: StepDescription, Draft: Draft{Scammer: "alice99", Amount: "$5"}}))

	got, ok, err := store.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, got.Draft.ScammerID.Valid)
	assert.Equal(t, StepDescription, got.Step)
	assert.False(t, srv.Exists("conversation:8"))
	assert.True(t, srv.Exists("conversation:7"))
}

func TestConnectRedis(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+srv.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	_, err = ConnectRedis(context.Background(), "not a url")
	assert.Error(t, err)
}
