package drafts

import (
	"github.com/gin-gonic/gin"

	"github.com/aura-events/composer/pkg/response"
	"github.com/aura-events/composer/pkg/validation"
)

// Value handles GET /drafts/:id/values?path=sessions.0.name.
func (h *Handler) Value(c *gin.Context) {
	path := c.Query("path")
	v, err := draftOf(c).Value(path)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"path": path, "value": v})
}

// SetValueRequest is the body for PUT /drafts/:id/values.
type SetValueRequest struct {
	Path  string      `json:"path" binding:"required"`
	Value interface{} `json:"value"`
}

// SetValue handles PUT /drafts/:id/values.
func (h *Handler) SetValue(c *gin.Context) {
	var req SetValueRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	if err := d.SetValue(req.Path, req.Value); err != nil {
		h.fail(c, err)
		return
	}
	v, err := d.Value(req.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"path": req.Path, "value": v, "error": d.Error(req.Path)})
}

// FieldError handles GET /drafts/:id/errors?path=event_name.
func (h *Handler) FieldError(c *gin.Context) {
	path := c.Query("path")
	response.OK(c, gin.H{"path": path, "error": draftOf(c).Error(path)})
}

// TriggerRequest is the body for POST /drafts/:id/validate.
type TriggerRequest struct {
	Prefix string `json:"prefix"`
}

// Trigger handles POST /drafts/:id/validate.
func (h *Handler) Trigger(c *gin.Context) {
	var req TriggerRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	issues := draftOf(c).Trigger(req.Prefix)
	if issues == nil {
		issues = []validation.Issue{}
	}
	response.OK(c, issues)
}

// FocusRequest is the body for PUT /drafts/:id/focus.
type FocusRequest struct {
	Path string `json:"path" binding:"required"`
}

// Focus handles PUT /drafts/:id/focus.
func (h *Handler) Focus(c *gin.Context) {
	var req FocusRequest
	if !bind(c, &req) {
		return
	}
	if err := draftOf(c).Focus(req.Path); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}
