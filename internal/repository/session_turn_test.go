package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futig/docqa-backend/internal/entity"
)

// storeFactories returns every store implementation available in this environment.
func storeFactories(t *testing.T) map[string]func(t *testing.T) SessionTurnRepository {
	factories := map[string]func(t *testing.T) SessionTurnRepository{
		"memory": func(t *testing.T) SessionTurnRepository {
			return NewSessionTurnMemory(time.Hour)
		},
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return factories
	}

	factories["postgres"] = func(t *testing.T) SessionTurnRepository {
		require.NoError(t, RunMigrations(dsn))

		pool, err := pgxpool.New(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(pool.Close)

		return NewSessionTurnPostgres(pool)
	}

	return factories
}

// uniqueSession keeps postgres runs independent of earlier data.
func uniqueSession(name string) string {
	return fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
}

func TestSessionTurnStore_Contract(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("unknown session is empty", func(t *testing.T) {
				store := factory(t)
				turns, err := store.Load(ctx, uniqueSession("unknown"))
				require.NoError(t, err)
				assert.Empty(t, turns)
			})

			t.Run("appends keep order", func(t *testing.T) {
				store := factory(t)
				id := uniqueSession("ordered")

				require.NoError(t, store.Append(ctx, id, entity.UserTurn("q1"), entity.AssistantTurn("a1")))
				require.NoError(t, store.Append(ctx, id, entity.UserTurn("q2"), entity.AssistantTurn("a2")))

				turns, err := store.Load(ctx, id)
				require.NoError(t, err)
				require.Len(t, turns, 4)

				assert.Equal(t, []entity.TurnRole{
					entity.TurnRoleUser, entity.TurnRoleAssistant, entity.TurnRoleUser, entity.TurnRoleAssistant,
				}, []entity.TurnRole{turns[0].Role, turns[1].Role, turns[2].Role, turns[3].Role})
				assert.Equal(t, []string{"q1", "a1", "q2", "a2"},
					[]string{turns[0].Content, turns[1].Content, turns[2].Content, turns[3].Content})
				assert.False(t, turns[0].CreatedAt.IsZero())
			})

			t.Run("sessions are isolated", func(t *testing.T) {
				store := factory(t)
				a, b := uniqueSession("a"), uniqueSession("b")

				require.NoError(t, store.Append(ctx, a, entity.UserTurn("only in a")))

				turns, err := store.Load(ctx, b)
				require.NoError(t, err)
				assert.Empty(t, turns)

				turns, err = store.Load(ctx, a)
				require.NoError(t, err)
				assert.Len(t, turns, 1)
			})

			t.Run("invalid role is rejected", func(t *testing.T) {
				store := factory(t)
				id := uniqueSession("invalid")

				err := store.Append(ctx, id, entity.SessionTurn{Role: "system", Content: "x"})
				assert.ErrorIs(t, err, entity.ErrInvalidRequest)

				turns, err := store.Load(ctx, id)
				require.NoError(t, err)
				assert.Empty(t, turns)
			})

			t.Run("concurrent pairs never interleave", func(t *testing.T) {
				store := factory(t)
				id := uniqueSession("concurrent")
				const writers = 8

				var wg sync.WaitGroup
				for i := 0; i < writers; i++ {
					wg.Add(1)
					go func(n int) {
						defer wg.Done()
						q := fmt.Sprintf("q%d", n)
						a := fmt.Sprintf("a%d", n)
						assert.NoError(t, store.Append(ctx, id, entity.UserTurn(q), entity.AssistantTurn(a)))
					}(i)
				}
				wg.Wait()

				turns, err := store.Load(ctx, id)
				require.NoError(t, err)
				require.Len(t, turns, writers*2)

				for i := 0; i < len(turns); i += 2 {
					require.Equal(t, entity.TurnRoleUser, turns[i].Role)
					require.Equal(t, entity.TurnRoleAssistant, turns[i+1].Role)
					assert.Equal(t, "a"+turns[i].Content[1:], turns[i+1].Content)
				}
			})
		})
	}
}

func TestSessionTurnMemory_LoadReturnsCopy(t *testing.T) {
	store := NewSessionTurnMemory(0)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s", entity.UserTurn("original")))

	turns, err := store.Load(ctx, "s")
	require.NoError(t, err)
	turns[0].Content = "changed"

	turns, err = store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "original", turns[0].Content)
}

func TestSessionTurnMemory_Expiration(t *testing.T) {
	store := NewSessionTurnMemory(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s", entity.UserTurn("hello")))
	time.Sleep(120 * time.Millisecond)

	turns, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSessionTurnMemory_CancelledContext(t *testing.T) {
	store := NewSessionTurnMemory(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Append(ctx, "s", entity.UserTurn("hello"))
	assert.ErrorIs(t, err, entity.ErrMemoryStore)
	assert.ErrorIs(t, err, context.Canceled)
}
