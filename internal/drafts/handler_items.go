package drafts

import (
	"math"

	"github.com/gin-gonic/gin"

	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/sessions"
	"github.com/aura-events/composer/internal/tickets"
	"github.com/aura-events/composer/pkg/response"
)

// MoveRequest is the body of every reorder endpoint.
type MoveRequest struct {
	From *int `json:"from" binding:"required,min=0"`
	To   *int `json:"to" binding:"required,min=0"`
}

// AddBlockRequest is the body for POST /drafts/:id/content-blocks.
// After is the index to insert behind: -1 puts the block first and absent appends.
type AddBlockRequest struct {
	Type  models.ContentBlockType `json:"type" binding:"required"`
	After *int                    `json:"after"`
}

// UpdateBlockRequest is the body for PATCH /drafts/:id/content-blocks/:blockId.
type UpdateBlockRequest struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

func afterOrEnd(after *int) int {
	if after == nil {
		return math.MaxInt32
	}
	return *after
}

// AddContentBlock handles POST /drafts/:id/content-blocks.
func (h *Handler) AddContentBlock(c *gin.Context) {
	var req AddBlockRequest
	if !bind(c, &req) {
		return
	}
	b, err := draftOf(c).AddContentBlock(req.Type, afterOrEnd(req.After))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, b)
}

// UpdateContentBlock handles PATCH /drafts/:id/content-blocks/:blockId.
func (h *Handler) UpdateContentBlock(c *gin.Context) {
	var req UpdateBlockRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	if err := d.UpdateContentBlock(c.Param("blockId"), req.Text, req.ImageURL); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.Event().ContentBlocks)
}

// MoveContentBlock handles POST /drafts/:id/content-blocks/move.
func (h *Handler) MoveContentBlock(c *gin.Context) {
	var req MoveRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	d.MoveContentBlock(*req.From, *req.To)
	response.OK(c, d.Event().ContentBlocks)
}

// RemoveContentBlock handles DELETE /drafts/:id/content-blocks/:blockId.
func (h *Handler) RemoveContentBlock(c *gin.Context) {
	if err := draftOf(c).RemoveContentBlock(c.Param("blockId")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// FAQRequest is the body for PATCH /drafts/:id/faqs/:faqId.
type FAQRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AddFAQ handles POST /drafts/:id/faqs.
func (h *Handler) AddFAQ(c *gin.Context) {
	response.Created(c, draftOf(c).AddFAQ())
}

// UpdateFAQ handles PATCH /drafts/:id/faqs/:faqId.
func (h *Handler) UpdateFAQ(c *gin.Context) {
	var req FAQRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	if err := d.UpdateFAQ(c.Param("faqId"), req.Question, req.Answer); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.Event().FAQBlocks)
}

// MoveFAQ handles POST /drafts/:id/faqs/move.
func (h *Handler) MoveFAQ(c *gin.Context) {
	var req MoveRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	d.MoveFAQ(*req.From, *req.To)
	response.OK(c, d.Event().FAQBlocks)
}

// RemoveFAQ handles DELETE /drafts/:id/faqs/:faqId.
func (h *Handler) RemoveFAQ(c *gin.Context) {
	if err := draftOf(c).RemoveFAQ(c.Param("faqId")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// AddSession handles POST /drafts/:id/sessions.
func (h *Handler) AddSession(c *gin.Context) {
	response.Created(c, draftOf(c).AddSession())
}

// UpdateSession handles PATCH /drafts/:id/sessions/:sid.
func (h *Handler) UpdateSession(c *gin.Context) {
	var req sessions.Patch
	if !bind(c, &req) {
		return
	}
	s, err := draftOf(c).UpdateSession(c.Param("sid"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, s)
}

// MoveSession handles POST /drafts/:id/sessions/move.
func (h *Handler) MoveSession(c *gin.Context) {
	var req MoveRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	d.MoveSession(*req.From, *req.To)
	response.OK(c, d.Event().Sessions)
}

// EditSession handles POST /drafts/:id/sessions/:sid/edit.
func (h *Handler) EditSession(c *gin.Context) {
	if err := draftOf(c).EditSession(c.Param("sid")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteSession handles DELETE /drafts/:id/sessions/:sid.
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := draftOf(c).DeleteSession(c.Param("sid")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// UndoSessionDeletion handles POST /drafts/:id/sessions/:sid/undo.
func (h *Handler) UndoSessionDeletion(c *gin.Context) {
	d := draftOf(c)
	if err := d.UndoSessionDeletion(c.Param("sid")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.Event().Sessions)
}

// AddTicket handles POST /drafts/:id/tickets.
func (h *Handler) AddTicket(c *gin.Context) {
	t, err := draftOf(c).AddTicket()
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, t)
}

// UpdateTicket handles PATCH /drafts/:id/tickets/:tid.
func (h *Handler) UpdateTicket(c *gin.Context) {
	var req tickets.Patch
	if !bind(c, &req) {
		return
	}
	t, err := draftOf(c).UpdateTicket(c.Param("tid"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, t)
}

// SetTicketOffset handles PUT /drafts/:id/tickets/:tid/offset.
func (h *Handler) SetTicketOffset(c *gin.Context) {
	var req models.Offset
	if !bind(c, &req) {
		return
	}
	t, err := draftOf(c).SetTicketOffset(c.Param("tid"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, t)
}

// SaleTimeTypeRequest is the body for PUT /drafts/:id/tickets/:tid/sale-time-type.
type SaleTimeTypeRequest struct {
	Type models.SaleTimeType `json:"sale_time_type" binding:"required"`
}

// SetTicketSaleTimeType handles PUT /drafts/:id/tickets/:tid/sale-time-type.
func (h *Handler) SetTicketSaleTimeType(c *gin.Context) {
	var req SaleTimeTypeRequest
	if !bind(c, &req) {
		return
	}
	t, err := draftOf(c).SetTicketSaleTimeType(c.Param("tid"), req.Type)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, t)
}

// SetTicketGlobalTime handles PUT /drafts/:id/tickets/:tid/global-time.
func (h *Handler) SetTicketGlobalTime(c *gin.Context) {
	var req models.GlobalTime
	if !bind(c, &req) {
		return
	}
	t, err := draftOf(c).SetTicketGlobalTime(c.Param("tid"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, t)
}

// LinkRequest is the body of the ticket-session link endpoints.
type LinkRequest struct {
	Linked bool `json:"linked"`
}

// LinkSession handles PUT /drafts/:id/tickets/:tid/sessions/:sid.
func (h *Handler) LinkSession(c *gin.Context) {
	var req LinkRequest
	if !bind(c, &req) {
		return
	}
	t, err := draftOf(c).LinkSession(c.Param("tid"), c.Param("sid"), req.Linked)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, t)
}

// LinkAllSessions handles PUT /drafts/:id/tickets/:tid/sessions.
func (h *Handler) LinkAllSessions(c *gin.Context) {
	var req LinkRequest
	if !bind(c, &req) {
		return
	}
	t, err := draftOf(c).LinkAllSessions(c.Param("tid"), req.Linked)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, t)
}

// MoveTicket handles POST /drafts/:id/tickets/move.
func (h *Handler) MoveTicket(c *gin.Context) {
	var req MoveRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	d.MoveTicket(*req.From, *req.To)
	response.OK(c, d.Event().Tickets)
}

// EditTicket handles POST /drafts/:id/tickets/:tid/edit.
func (h *Handler) EditTicket(c *gin.Context) {
	if err := draftOf(c).EditTicket(c.Param("tid")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteTicket handles DELETE /drafts/:id/tickets/:tid.
func (h *Handler) DeleteTicket(c *gin.Context) {
	if err := draftOf(c).DeleteTicket(c.Param("tid")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// UndoTicketDeletion handles POST /drafts/:id/tickets/:tid/undo.
func (h *Handler) UndoTicketDeletion(c *gin.Context) {
	d := draftOf(c)
	if err := d.UndoTicketDeletion(c.Param("tid")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.Event().Tickets)
}
