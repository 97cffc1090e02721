package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// ResetChatInput identifies the chat session to drop.
type ResetChatInput struct {
	SessionID string
}

type resetChatService interface {
	ResetChat(ctx context.Context, sessionID string) error
}

// ResetChatCommand starts a fresh conversation for a session.
type ResetChatCommand struct {
	service   resetChatService
	telemetry Telemetry
}

// NewResetChatCommand creates the command.
func NewResetChatCommand(service resetChatService, telemetry Telemetry) *ResetChatCommand {
	return &ResetChatCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResetChatInput] = (*ResetChatCommand)(nil)

// Execute deletes the stored transcript.
func (c *ResetChatCommand) Execute(ctx context.Context, msg ResetChatInput) error {
	if c.service == nil {
		return errors.New("reset chat command requires service")
	}
	if msg.SessionID == "" {
		return errors.New("session id is required")
	}
	if err := c.service.ResetChat(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "mozdados.command.chat_reset", map[string]any{"session_id": msg.SessionID})
	return nil
}
