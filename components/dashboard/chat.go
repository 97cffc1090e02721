package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatGreeting opens every new chat session.
const ChatGreeting = "👋 Olá! Eu sou o Databot. Pergunte sobre os indicadores que deseja explorar."

// ChatMessage is one turn of the conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSession is the transcript bound to one filter selection.
type ChatSession struct {
	ID        string        `json:"id"`
	FilterKey string        `json:"filter_key"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewChatSession starts a session holding only the greeting.
func NewChatSession(id, filterKey string, now time.Time) *ChatSession {
	return &ChatSession{
		ID:        id,
		FilterKey: filterKey,
		Messages:  []ChatMessage{{Role: RoleAssistant, Content: ChatGreeting, CreatedAt: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset drops the transcript and rebinds the session to filterKey.
func (s *ChatSession) Reset(filterKey string, now time.Time) {
	s.FilterKey = filterKey
	s.Messages = []ChatMessage{{Role: RoleAssistant, Content: ChatGreeting, CreatedAt: now}}
	s.UpdatedAt = now
}

// Append adds a message.
func (s *ChatSession) Append(role, content string, now time.Time) {
	s.Messages = append(s.Messages, ChatMessage{Role: role, Content: content, CreatedAt: now})
	s.UpdatedAt = now
}

// History returns the transcript sent to the assistant: the greeting and
// any leading assistant turns are left out so it starts with the user.
func (s *ChatSession) History() []ChatMessage {
	for i, msg := range s.Messages {
		if msg.Role == RoleUser {
			return append([]ChatMessage(nil), s.Messages[i:]...)
		}
	}
	return nil
}

// BuildSystemPrompt describes the selected data to the assistant.
func BuildSystemPrompt(indicators, countries, searchNames []string) string {
	var b strings.Builder
	b.WriteString("Você é o Databot. Explique indicadores económicos e traduza nomes em inglês.\n")
	fmt.Fprintf(&b, "Indicadores disponíveis: %s\n", quoteList(indicators))
	fmt.Fprintf(&b, "Países selecionados: %s\n", quoteList(countries))
	fmt.Fprintf(&b, "Indicadores de busca: %s. ", quoteList(searchNames))
	b.WriteString("Apresente estes indicadores quando o utilizador pedir ajuda para encontrá-los. ")
	b.WriteString("Por exemplo, para \"como encontro a inflação\" responda: comece a escrever Inflation na barra de seleção de indicadores e selecione o seu indicador.\n")
	b.WriteString("Explique que os nomes devem ser escritos em inglês com a primeira letra maiúscula, de acordo com cada caso. Noutros casos, como PIB, deve escrever GDP.")
	return b.String()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// InMemorySessionStore keeps chat sessions in process memory.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]ChatSession
}

// NewInMemorySessionStore returns an empty store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: map[string]ChatSession{}}
}

// GetSession returns a copy of the session, or nil when unknown.
func (s *InMemorySessionStore) GetSession(_ context.Context, id string) (*ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	session.Messages = append([]ChatMessage(nil), session.Messages...)
	return &session, nil
}

// SaveSession stores a copy of the session.
func (s *InMemorySessionStore) SaveSession(_ context.Context, session *ChatSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("dashboard: chat session id is required")
	}
	stored := *session
	stored.Messages = append([]ChatMessage(nil), session.Messages...)
	s.mu.Lock()
	s.sessions[session.ID] = stored
	s.mu.Unlock()
	return nil
}

// DeleteSession removes the session.
func (s *InMemorySessionStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// CleanupExpired removes sessions not updated within ttl.
func (s *InMemorySessionStore) CleanupExpired(_ context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	var removed int64
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored sessions.
func (s *InMemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SessionSweeper is implemented by session stores that can expire idle
// sessions.
type SessionSweeper interface {
	CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error)
}
