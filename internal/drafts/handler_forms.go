package drafts

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aura-events/composer/internal/forms"
	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/pkg/response"
)

// CreateForm handles POST /drafts/:id/form.
func (h *Handler) CreateForm(c *gin.Context) {
	response.Created(c, draftOf(c).CreateForm())
}

// RemoveForm handles DELETE /drafts/:id/form.
func (h *Handler) RemoveForm(c *gin.Context) {
	draftOf(c).RemoveForm()
	response.NoContent(c)
}

// RenameRequest renames a form or a template.
type RenameRequest struct {
	FormName string `json:"form_name"`
}

// RenameForm handles PATCH /drafts/:id/form.
func (h *Handler) RenameForm(c *gin.Context) {
	var req RenameRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	if err := d.RenameForm(req.FormName); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.Event().FormBlock)
}

// FormIssues handles GET /drafts/:id/form/issues.
func (h *Handler) FormIssues(c *gin.Context) {
	issues := draftOf(c).FormIssues()
	if issues == nil {
		issues = []forms.Issue{}
	}
	response.OK(c, issues)
}

// AddFieldRequest is the body for POST /drafts/:id/form/fields.
type AddFieldRequest struct {
	FieldType models.FieldType `json:"field_type" binding:"required"`
	After     *int             `json:"after"`
}

// AddField handles POST /drafts/:id/form/fields.
func (h *Handler) AddField(c *gin.Context) {
	var req AddFieldRequest
	if !bind(c, &req) {
		return
	}
	f, err := draftOf(c).AddField(req.FieldType, afterOrEnd(req.After))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, f)
}

// UpdateField handles PATCH /drafts/:id/form/fields/:fid.
func (h *Handler) UpdateField(c *gin.Context) {
	var req forms.FieldPatch
	if !bind(c, &req) {
		return
	}
	f, err := draftOf(c).UpdateField(c.Param("fid"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, f)
}

// PresetRequest is the body for PUT /drafts/:id/form/fields/:fid/preset.
type PresetRequest struct {
	FieldType models.FieldType `json:"field_type" binding:"required"`
}

// ApplyFieldPreset handles PUT /drafts/:id/form/fields/:fid/preset.
func (h *Handler) ApplyFieldPreset(c *gin.Context) {
	var req PresetRequest
	if !bind(c, &req) {
		return
	}
	f, err := draftOf(c).ApplyFieldPreset(c.Param("fid"), req.FieldType)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, f)
}

// MoveField handles POST /drafts/:id/form/fields/move.
func (h *Handler) MoveField(c *gin.Context) {
	var req MoveRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	if err := d.MoveField(*req.From, *req.To); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.Event().FormBlock)
}

// EditField handles POST /drafts/:id/form/fields/:fid/edit.
func (h *Handler) EditField(c *gin.Context) {
	if err := draftOf(c).EditField(c.Param("fid")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteField handles DELETE /drafts/:id/form/fields/:fid.
func (h *Handler) DeleteField(c *gin.Context) {
	if err := draftOf(c).DeleteField(c.Param("fid")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// UndoFieldDeletion handles POST /drafts/:id/form/fields/:fid/undo.
func (h *Handler) UndoFieldDeletion(c *gin.Context) {
	d := draftOf(c)
	if err := d.UndoFieldDeletion(c.Param("fid")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.Event().FormBlock)
}

// OptionRequest is the body of the option add and update endpoints.
type OptionRequest struct {
	Value string `json:"value"`
}

// AddOption handles POST /drafts/:id/form/fields/:fid/options.
func (h *Handler) AddOption(c *gin.Context) {
	var req OptionRequest
	if !bind(c, &req) {
		return
	}
	idx, err := draftOf(c).AddOption(c.Param("fid"), req.Value)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, gin.H{"index": idx})
}

func optionIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		response.BadRequest(c, "invalid option index")
		return 0, false
	}
	return idx, true
}

// UpdateOption handles PUT /drafts/:id/form/fields/:fid/options/:idx.
func (h *Handler) UpdateOption(c *gin.Context) {
	idx, ok := optionIndex(c)
	if !ok {
		return
	}
	var req OptionRequest
	if !bind(c, &req) {
		return
	}
	if err := draftOf(c).UpdateOption(c.Param("fid"), idx, req.Value); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// MoveOption handles POST /drafts/:id/form/fields/:fid/options/move.
func (h *Handler) MoveOption(c *gin.Context) {
	var req MoveRequest
	if !bind(c, &req) {
		return
	}
	if err := draftOf(c).MoveOption(c.Param("fid"), *req.From, *req.To); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteOption handles DELETE /drafts/:id/form/fields/:fid/options/:idx.
// The returned key undoes the deletion.
func (h *Handler) DeleteOption(c *gin.Context) {
	idx, ok := optionIndex(c)
	if !ok {
		return
	}
	key, err := draftOf(c).DeleteOption(c.Param("fid"), idx)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"key": key})
}

// UndoOptionDeletion handles POST /drafts/:id/form/option-deletions/:key/undo.
func (h *Handler) UndoOptionDeletion(c *gin.Context) {
	d := draftOf(c)
	if err := d.UndoOptionDeletion(c.Param("key")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.Event().FormBlock)
}

// LoadTemplates handles GET /drafts/:id/templates. It refreshes the list from the backing store.
func (h *Handler) LoadTemplates(c *gin.Context) {
	list, err := draftOf(c).LoadTemplates(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, list)
}

// SaveAsTemplate handles POST /drafts/:id/templates.
func (h *Handler) SaveAsTemplate(c *gin.Context) {
	t, err := draftOf(c).SaveAsTemplate(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, t)
}

// RenameTemplate handles PATCH /drafts/:id/templates/:tplId.
func (h *Handler) RenameTemplate(c *gin.Context) {
	var req RenameRequest
	if !bind(c, &req) {
		return
	}
	t, err := draftOf(c).RenameTemplate(c.Request.Context(), c.Param("tplId"), req.FormName)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, t)
}

// ApplyTemplate handles POST /drafts/:id/templates/:tplId/apply.
func (h *Handler) ApplyTemplate(c *gin.Context) {
	f, err := draftOf(c).ApplyTemplate(c.Request.Context(), c.Param("tplId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, f)
}

// DeleteTemplate handles DELETE /drafts/:id/templates/:tplId. The backing store
// deletion happens after the grace period unless undone.
func (h *Handler) DeleteTemplate(c *gin.Context) {
	if err := draftOf(c).DeleteTemplate(c.Param("tplId")); err != nil {
		h.fail(c, err)
		return
	}
	response.Accepted(c, nil)
}

// UndoTemplateDeletion handles POST /drafts/:id/templates/:tplId/undo.
func (h *Handler) UndoTemplateDeletion(c *gin.Context) {
	d := draftOf(c)
	if err := d.UndoTemplateDeletion(c.Param("tplId")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.Templates())
}
