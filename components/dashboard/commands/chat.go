package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/mozdados/mozdados/components/dashboard"
)

// SendChatInput carries one chat turn. Result receives the reply when set.
type SendChatInput struct {
	Request dashboard.ChatRequest
	Result  *dashboard.ChatReply
}

type chatService interface {
	SendChat(ctx context.Context, req dashboard.ChatRequest) (dashboard.ChatReply, error)
}

// SendChatCommand forwards a prompt to the assistant and stores the turn.
type SendChatCommand struct {
	service   chatService
	telemetry Telemetry
}

// NewSendChatCommand wires dependencies.
func NewSendChatCommand(service chatService, telemetry Telemetry) *SendChatCommand {
	return &SendChatCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SendChatInput] = (*SendChatCommand)(nil)

// Execute runs the chat turn.
func (c *SendChatCommand) Execute(ctx context.Context, msg SendChatInput) error {
	if c.service == nil {
		return errors.New("send chat command requires service")
	}
	reply, err := c.service.SendChat(ctx, msg.Request)
	if err != nil {
		c.telemetry.Record(ctx, "mozdados.command.chat_failed", map[string]any{"error": err.Error()})
		return err
	}
	if msg.Result != nil {
		*msg.Result = reply
	}
	c.telemetry.Record(ctx, "mozdados.command.chat", map[string]any{"session_id": reply.Session.ID})
	return nil
}
