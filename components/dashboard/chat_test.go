package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSessionLifecycle(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	session := NewChatSession("abc", "k1", now)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, ChatGreeting, session.Messages[0].Content)
	assert.Empty(t, session.History())

	session.Append(RoleUser, "Olá", now.Add(time.Second))
	session.Append(RoleAssistant, "Bom dia", now.Add(2*time.Second))
	history := session.History()
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, now.Add(2*time.Second), session.UpdatedAt)

	session.Reset("k2", now.Add(time.Minute))
	assert.Equal(t, "k2", session.FilterKey)
	assert.Len(t, session.Messages, 1)
}

func TestBuildSystemPrompt(t *testing.T) {
	t.Parallel()
	prompt := BuildSystemPrompt([]string{"GDP"}, []string{"Mozambique", "Angola"}, []string{"Inflation"})
	assert.Contains(t, prompt, "Você é o Databot")
	assert.Contains(t, prompt, "Indicadores disponíveis: ['GDP']")
	assert.Contains(t, prompt, "Países selecionados: ['Mozambique', 'Angola']")
	assert.Contains(t, prompt, "['Inflation']")
	assert.Contains(t, prompt, "GDP.")
}

func TestInMemorySessionStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewInMemorySessionStore()

	missing, err := store.GetSession(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	session := NewChatSession("s1", "k", time.Now())
	require.NoError(t, store.SaveSession(ctx, session))
	session.Append(RoleUser, "mutated after save", time.Now())

	got, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Messages, 1)

	require.NoError(t, store.DeleteSession(ctx, "s1"))
	got, err = store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, store.SaveSession(ctx, &ChatSession{}))
}

func TestInMemorySessionStoreCleanupExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewInMemorySessionStore()

	require.NoError(t, store.SaveSession(ctx, NewChatSession("old", "k", time.Now().Add(-2*time.Hour))))
	require.NoError(t, store.SaveSession(ctx, NewChatSession("fresh", "k", time.Now())))

	removed, err := store.CleanupExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, store.Len())

	got, err := store.GetSession(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
