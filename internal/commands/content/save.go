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

const saveContentMessageType = "cms.blocks.content.save"

// SaveContentCommand stores a document draft. EditedCultures scopes which
// cultures the submitted values and exposure replace.
type SaveContentCommand struct {
	ID             uuid.UUID               `json:"id,omitempty"`
	ContentType    string                  `json:"content_type"`
	Slug           string                  `json:"slug,omitempty"`
	Name           string                  `json:"name"`
	Values         []content.PropertyValue `json:"values"`
	EditedCultures []string                `json:"edited_cultures,omitempty"`
}

// Type implements command.Message.
func (SaveContentCommand) Type() string { return saveContentMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m SaveContentCommand) Validate() error {
	errs := validation.Errors{}
	if m.ID == uuid.Nil && strings.TrimSpace(m.ContentType) == "" {
		errs["content_type"] = validation.NewError("cms.blocks.content.save.content_type_required", "content_type is required for new documents")
	}
	if m.ID == uuid.Nil && strings.TrimSpace(m.Name) == "" && strings.TrimSpace(m.Slug) == "" {
		errs["name"] = validation.NewError("cms.blocks.content.save.name_required", "name or slug is required for new documents")
	}
	for _, value := range m.Values {
		if strings.TrimSpace(value.Alias) == "" {
			errs["values"] = validation.NewError("cms.blocks.content.save.alias_required", "every value needs a property alias")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SaveContentHandler saves drafts through the content service.
type SaveContentHandler struct {
	inner *commands.Handler[SaveContentCommand]
}

// NewSaveContentHandler constructs a handler wired to service.
func NewSaveContentHandler(service content.Service, logger interfaces.Logger, opts ...commands.HandlerOption[SaveContentCommand]) *SaveContentHandler {
	exec := func(ctx context.Context, msg SaveContentCommand) error {
		_, err := service.Save(ctx, content.SaveRequest{
			ID:               msg.ID,
			ContentTypeAlias: msg.ContentType,
			Slug:             msg.Slug,
			Name:             msg.Name,
			Values:           msg.Values,
			EditedCultures:   msg.EditedCultures,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[SaveContentCommand]{
		commands.WithLogger[SaveContentCommand](logger),
		commands.WithOperation[SaveContentCommand]("content.save"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SaveContentHandler{
		inner: commands.NewHandler[SaveContentCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SaveContentCommand].Execute.
func (h *SaveContentHandler) Execute(ctx context.Context, msg SaveContentCommand) error {
	return h.inner.Execute(ctx, msg)
}
