package contentcmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-blockeditor/internal/commands"
	"github.com/goliatone/go-blockeditor/internal/content"
	"github.com/goliatone/go-blockeditor/pkg/interfaces"
)

const publishContentMessageType = "cms.blocks.content.publish"

// PublishContentCommand publishes a document draft for Cultures. Empty
// Cultures publishes every configured culture.
type PublishContentCommand struct {
	ContentID      uuid.UUID `json:"content_id"`
	Cultures       []string  `json:"cultures,omitempty"`
	SkipValidation bool      `json:"skip_validation,omitempty"`
}

// Type implements command.Message.
func (PublishContentCommand) Type() string { return publishContentMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m PublishContentCommand) Validate() error {
	errs := validation.Errors{}
	if m.ContentID == uuid.Nil {
		errs["content_id"] = validation.NewError("cms.blocks.content.publish.content_id_required", "content_id is required")
	}
	for _, code := range m.Cultures {
		if strings.TrimSpace(code) == "" {
			errs["cultures"] = validation.NewError("cms.blocks.content.publish.culture_blank", "cultures cannot contain blank codes")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishContentHandler publishes drafts via the content service.
type PublishContentHandler struct {
	inner *commands.Handler[PublishContentCommand]
}

// NewPublishContentHandler constructs a handler wired to service.
func NewPublishContentHandler(service content.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishContentCommand]) *PublishContentHandler {
	exec := func(ctx context.Context, msg PublishContentCommand) error {
		_, err := service.Publish(ctx, content.PublishRequest{
			ID:             msg.ContentID,
			Cultures:       msg.Cultures,
			SkipValidation: msg.SkipValidation,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishContentCommand]{
		commands.WithLogger[PublishContentCommand](logger),
		commands.WithOperation[PublishContentCommand]("content.publish"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishContentHandler{
		inner: commands.NewHandler[PublishContentCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishContentCommand].Execute.
func (h *PublishContentHandler) Execute(ctx context.Context, msg PublishContentCommand) error {
	return h.inner.Execute(ctx, msg)
}
