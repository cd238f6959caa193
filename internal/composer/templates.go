package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/forms"
	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/notify"
	"github.com/aura-events/composer/internal/persistence"
	"github.com/aura-events/composer/pkg/validation"
)

// LoadTemplates fetches the account's templates. Templates whose deletion is
// still pending stay hidden.
func (c *Composer) LoadTemplates(ctx context.Context) ([]models.Template, error) {
	list, err := c.store.ListTemplates(ctx, c.opts.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	visible := list[:0:0]
	for _, t := range list {
		if c.templateDel.hidden(t.ID) {
			continue
		}
		visible = append(visible, t)
	}
	c.templates.Set(visible)
	return c.templates.All(), nil
}

// liveTemplates counts templates that exist or are about to. Caller holds mu.
func (c *Composer) liveTemplates() int {
	return c.templates.Len() + c.templateDel.pending() + c.savingTemplate
}

// SaveAsTemplate stores the current form as a new template of the account.
func (c *Composer) SaveAsTemplate(ctx context.Context) (models.Template, error) {
	c.mu.Lock()
	form := c.forms.Form()
	if form == nil {
		c.mu.Unlock()
		return models.Template{}, forms.ErrNoForm
	}
	if issues := c.forms.Validate(); len(issues) > 0 {
		c.notifyLocked(notify.Notification{Message: "Please fix the form errors", Kind: notify.KindError})
		c.unlock()
		return models.Template{}, &ValidationError{Issues: formIssues(issues)}
	}
	if c.liveTemplates() >= c.opts.TemplateLimit {
		c.notifyLocked(notify.Notification{
			Message: fmt.Sprintf("You can keep at most %d templates", c.opts.TemplateLimit),
			Kind:    notify.KindWarning,
		})
		c.unlock()
		return models.Template{}, forms.ErrTemplateLimit
	}
	tpl := forms.TemplateFromForm(c.opts.AccountID, *form, c.sched.Now())
	c.savingTemplate++
	c.mu.Unlock()

	err := c.store.CreateTemplate(ctx, &tpl)

	c.mu.Lock()
	defer c.unlock()
	c.savingTemplate--
	if err != nil {
		c.logger.Error("create template", zap.Error(err))
		c.notifyLocked(notify.Notification{Message: "Failed to save template", Kind: notify.KindError})
		return models.Template{}, fmt.Errorf("create template: %w", err)
	}
	c.templates.Append(tpl)
	c.notifyLocked(notify.Notification{Message: "Template saved", Kind: notify.KindSuccess})
	return tpl, nil
}

// RenameTemplate changes a template's form name in the backing store.
func (c *Composer) RenameTemplate(ctx context.Context, id, name string) (models.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Template{}, &ValidationError{Issues: []validation.Issue{{Path: "form_name", Tag: "required", Message: "is required"}}}
	}
	c.mu.Lock()
	_, _, ok := c.templates.Get(id)
	c.mu.Unlock()
	if !ok {
		return models.Template{}, fmt.Errorf("rename template %s: %w", id, forms.ErrTemplateNotFound)
	}

	updated, err := c.store.UpdateTemplate(ctx, id, models.TemplatePatch{FormName: &name})

	c.mu.Lock()
	defer c.unlock()
	if err != nil {
		c.logger.Error("update template", zap.String("id", id), zap.Error(err))
		c.notifyLocked(notify.Notification{Message: "Failed to rename template", Kind: notify.KindError})
		return models.Template{}, fmt.Errorf("update template %s: %w", id, err)
	}
	c.templates.Replace(*updated)
	return *updated, nil
}

// ApplyTemplate replaces the form with the template's fields and offers undo.
// The template is re-read from the backing store so edits made elsewhere are
// picked up; when the store cannot answer, the listed copy is used.
func (c *Composer) ApplyTemplate(ctx context.Context, id string) (models.FormBlock, error) {
	c.mu.Lock()
	_, _, ok := c.templates.Get(id)
	c.mu.Unlock()
	if !ok {
		return models.FormBlock{}, fmt.Errorf("apply template %s: %w", id, forms.ErrTemplateNotFound)
	}

	fresh, err := c.store.GetTemplate(ctx, id)

	c.mu.Lock()
	defer c.unlock()
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		c.templates.Remove(id)
		c.notifyLocked(notify.Notification{Message: "This template no longer exists", Kind: notify.KindWarning})
		return models.FormBlock{}, fmt.Errorf("apply template %s: %w", id, forms.ErrTemplateNotFound)
	case err != nil:
		c.logger.Warn("get template, using listed copy", zap.String("id", id), zap.Error(err))
	default:
		c.templates.Replace(*fresh)
	}
	tpl, _, ok := c.templates.Get(id)
	if !ok {
		return models.FormBlock{}, fmt.Errorf("apply template %s: %w", id, forms.ErrTemplateNotFound)
	}
	prev := c.forms.ApplyTemplate(tpl)
	act := c.actionLocked("Undo", func() {
		c.forms.Set(prev)
		c.forms.SetEditing("")
	})
	c.notifyLocked(notify.Notification{Message: "Template applied", Kind: notify.KindInfo, Action: act})
	return *c.forms.Form(), nil
}

// DeleteTemplate hides a template at once and deletes it from the backing
// store when the grace period ends without undo.
func (c *Composer) DeleteTemplate(id string) error {
	c.mu.Lock()
	defer c.unlock()
	return c.templateDel.begin(id)
}

// UndoTemplateDeletion cancels a pending template deletion.
func (c *Composer) UndoTemplateDeletion(id string) error {
	c.mu.Lock()
	defer c.unlock()
	return c.templateDel.undo(id)
}

// Templates returns the visible templates.
func (c *Composer) Templates() []models.Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.templates.All()
}

func formIssues(issues []forms.Issue) []validation.Issue {
	out := make([]validation.Issue, 0, len(issues))
	for _, is := range issues {
		out = append(out, validation.Issue{Path: "form_block." + is.Path(), Tag: "form", Message: is.Message})
	}
	return out
}
