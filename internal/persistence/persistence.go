// Package persistence implements the composer's backing store on PostgreSQL and in memory.
package persistence

import (
	"errors"
	"fmt"

	"github.com/aura-events/composer/internal/models"
)

var (
	// ErrNotFound is returned when a template or account does not exist for the caller.
	ErrNotFound = errors.New("record not found")
	// ErrTemplateLimit is returned when an account already has the maximum number of templates.
	ErrTemplateLimit = fmt.Errorf("template limit of %d reached", models.MaxTemplatesPerAccount)
)
