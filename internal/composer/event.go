package composer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/reorder"
)

// EventPatch holds the event properties to change; nil members are left as they are.
type EventPatch struct {
	EventName   *string            `json:"event_name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Location    *string            `json:"location,omitempty"`
	Visibility  *models.Visibility `json:"visibility,omitempty"`
}

// UpdateEvent applies p to the draft.
func (c *Composer) UpdateEvent(p EventPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.Visibility != nil && *p.Visibility != models.VisibilityPublic && *p.Visibility != models.VisibilityPrivate {
		return fmt.Errorf("visibility %q: %w", *p.Visibility, ErrInvalidValue)
	}
	if p.EventName != nil {
		c.event.EventName = *p.EventName
	}
	if p.Description != nil {
		c.event.Description = *p.Description
	}
	if p.Location != nil {
		c.event.Location = *p.Location
	}
	if p.Visibility != nil {
		c.event.Visibility = *p.Visibility
	}
	return nil
}

// SetCoverImage stores the cover image reference.
func (c *Composer) SetCoverImage(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.event.CoverImage = url
}

// AddContentBlock inserts a block after index after (-1 puts it first, past the end appends).
func (c *Composer) AddContentBlock(typ models.ContentBlockType, after int) (models.ContentBlock, error) {
	if typ != models.ContentBlockText && typ != models.ContentBlockImage {
		return models.ContentBlock{}, fmt.Errorf("content block type %q: %w", typ, ErrInvalidValue)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b := models.ContentBlock{ID: uuid.New().String(), Type: typ}
	c.event.ContentBlocks = reorder.Insert(c.event.ContentBlocks, after+1, b)
	return b, nil
}

// UpdateContentBlock replaces the text or image of a block.
func (c *Composer) UpdateContentBlock(id, text, imageURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := reorder.IndexOf(c.event.ContentBlocks, func(b models.ContentBlock) bool { return b.ID == id })
	if i < 0 {
		return fmt.Errorf("content block %s: %w", id, ErrNotFound)
	}
	c.event.ContentBlocks[i].Text = text
	c.event.ContentBlocks[i].ImageURL = imageURL
	return nil
}

// MoveContentBlock reorders the content blocks.
func (c *Composer) MoveContentBlock(from, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.event.ContentBlocks = reorder.Move(c.event.ContentBlocks, from, to)
}

// RemoveContentBlock deletes a block.
func (c *Composer) RemoveContentBlock(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := reorder.IndexOf(c.event.ContentBlocks, func(b models.ContentBlock) bool { return b.ID == id })
	if i < 0 {
		return fmt.Errorf("content block %s: %w", id, ErrNotFound)
	}
	c.event.ContentBlocks, _, _ = reorder.Remove(c.event.ContentBlocks, i)
	return nil
}

// AddFAQ appends an empty question.
func (c *Composer) AddFAQ() models.FAQBlock {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := models.FAQBlock{ID: uuid.New().String()}
	c.event.FAQBlocks = append(c.event.FAQBlocks, b)
	return b
}

// UpdateFAQ replaces question and answer of a block.
func (c *Composer) UpdateFAQ(id, question, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := reorder.IndexOf(c.event.FAQBlocks, func(b models.FAQBlock) bool { return b.ID == id })
	if i < 0 {
		return fmt.Errorf("faq %s: %w", id, ErrNotFound)
	}
	c.event.FAQBlocks[i].Question = question
	c.event.FAQBlocks[i].Answer = answer
	return nil
}

// MoveFAQ reorders the FAQ blocks.
func (c *Composer) MoveFAQ(from, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.event.FAQBlocks = reorder.Move(c.event.FAQBlocks, from, to)
}

// RemoveFAQ deletes a block.
func (c *Composer) RemoveFAQ(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := reorder.IndexOf(c.event.FAQBlocks, func(b models.FAQBlock) bool { return b.ID == id })
	if i < 0 {
		return fmt.Errorf("faq %s: %w", id, ErrNotFound)
	}
	c.event.FAQBlocks, _, _ = reorder.Remove(c.event.FAQBlocks, i)
	return nil
}
