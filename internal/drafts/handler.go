package drafts

import (
	"context"
	"errors"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/composer"
	"github.com/aura-events/composer/internal/forms"
	"github.com/aura-events/composer/internal/payments"
	"github.com/aura-events/composer/internal/persistence"
	"github.com/aura-events/composer/internal/saletime"
	"github.com/aura-events/composer/internal/sessions"
	"github.com/aura-events/composer/internal/tickets"
	"github.com/aura-events/composer/internal/undo"
	"github.com/aura-events/composer/internal/wizard"
	"github.com/aura-events/composer/pkg/queue"
	"github.com/aura-events/composer/pkg/response"
	"github.com/aura-events/composer/pkg/storage"
)

const ctxDraft = "draft"

// CoverQueue enqueues cover image ingest jobs.
type CoverQueue interface {
	EnqueueCoverImage(ctx context.Context, payload queue.CoverImagePayload) (string, error)
}

// Presigner issues direct upload URLs for cover images.
type Presigner interface {
	GeneratePresignedUploadURL(ctx context.Context, key, contentType string) (string, error)
	PublicObjectURL(key string) string
}

// Handler serves the draft editing API.
type Handler struct {
	reg     *Registry
	covers  CoverQueue
	presign Presigner
	logger  *zap.Logger
}

// NewHandler creates a drafts handler. covers and presign may be nil; their endpoints then answer 503.
func NewHandler(reg *Registry, covers CoverQueue, presign Presigner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reg: reg, covers: covers, presign: presign, logger: logger}
}

// Register mounts every draft route under g.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)

	d := g.Group("/:id", h.loadDraft)
	d.GET("", h.Get)
	d.DELETE("", h.Close)
	d.PATCH("", h.UpdateEvent)
	d.POST("/save", h.Save)
	d.POST("/next", h.Next)
	d.POST("/prev", h.Prev)
	d.POST("/actions/:actionId", h.InvokeAction)

	d.PUT("/cover-image", h.SetCoverImage)
	d.POST("/cover", h.IngestCover)
	d.POST("/cover/upload-url", h.CoverUploadURL)

	d.POST("/content-blocks", h.AddContentBlock)
	d.POST("/content-blocks/move", h.MoveContentBlock)
	d.PATCH("/content-blocks/:blockId", h.UpdateContentBlock)
	d.DELETE("/content-blocks/:blockId", h.RemoveContentBlock)
	d.POST("/faqs", h.AddFAQ)
	d.POST("/faqs/move", h.MoveFAQ)
	d.PATCH("/faqs/:faqId", h.UpdateFAQ)
	d.DELETE("/faqs/:faqId", h.RemoveFAQ)

	d.POST("/sessions", h.AddSession)
	d.POST("/sessions/move", h.MoveSession)
	d.PATCH("/sessions/:sid", h.UpdateSession)
	d.POST("/sessions/:sid/edit", h.EditSession)
	d.DELETE("/sessions/:sid", h.DeleteSession)
	d.POST("/sessions/:sid/undo", h.UndoSessionDeletion)

	d.POST("/tickets", h.AddTicket)
	d.POST("/tickets/move", h.MoveTicket)
	d.PATCH("/tickets/:tid", h.UpdateTicket)
	d.PUT("/tickets/:tid/offset", h.SetTicketOffset)
	d.PUT("/tickets/:tid/sale-time-type", h.SetTicketSaleTimeType)
	d.PUT("/tickets/:tid/global-time", h.SetTicketGlobalTime)
	d.PUT("/tickets/:tid/sessions", h.LinkAllSessions)
	d.PUT("/tickets/:tid/sessions/:sid", h.LinkSession)
	d.POST("/tickets/:tid/edit", h.EditTicket)
	d.DELETE("/tickets/:tid", h.DeleteTicket)
	d.POST("/tickets/:tid/undo", h.UndoTicketDeletion)

	d.POST("/form", h.CreateForm)
	d.PATCH("/form", h.RenameForm)
	d.DELETE("/form", h.RemoveForm)
	d.GET("/form/issues", h.FormIssues)
	d.POST("/form/fields", h.AddField)
	d.POST("/form/fields/move", h.MoveField)
	d.PATCH("/form/fields/:fid", h.UpdateField)
	d.PUT("/form/fields/:fid/preset", h.ApplyFieldPreset)
	d.POST("/form/fields/:fid/edit", h.EditField)
	d.DELETE("/form/fields/:fid", h.DeleteField)
	d.POST("/form/fields/:fid/undo", h.UndoFieldDeletion)
	d.POST("/form/fields/:fid/options", h.AddOption)
	d.POST("/form/fields/:fid/options/move", h.MoveOption)
	d.PUT("/form/fields/:fid/options/:idx", h.UpdateOption)
	d.DELETE("/form/fields/:fid/options/:idx", h.DeleteOption)
	d.POST("/form/option-deletions/:key/undo", h.UndoOptionDeletion)

	d.GET("/templates", h.LoadTemplates)
	d.POST("/templates", h.SaveAsTemplate)
	d.PATCH("/templates/:tplId", h.RenameTemplate)
	d.POST("/templates/:tplId/apply", h.ApplyTemplate)
	d.DELETE("/templates/:tplId", h.DeleteTemplate)
	d.POST("/templates/:tplId/undo", h.UndoTemplateDeletion)

	d.GET("/preferred-payments", h.LoadPreferredPayments)
	d.POST("/preferred-payments", h.SavePreferredPayment)
	d.PUT("/preferred-payments/:pid", h.SavePreferredPayment)
	d.POST("/preferred-payments/:pid/select", h.SelectPreferredPayment)
	d.DELETE("/preferred-payments/:pid", h.DeletePreferredPayment)
	d.POST("/preferred-payments/:pid/undo", h.UndoPreferredPaymentDeletion)
	d.PUT("/bank-transfer", h.UpdateBankTransfer)
	d.PUT("/cash", h.UpdateCash)

	d.GET("/values", h.Value)
	d.PUT("/values", h.SetValue)
	d.GET("/errors", h.FieldError)
	d.POST("/validate", h.Trigger)
	d.PUT("/focus", h.Focus)
}

// loadDraft resolves :id to an open (or saved) draft.
func (h *Handler) loadDraft(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid draft id")
		c.Abort()
		return
	}
	d, err := h.reg.Open(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		c.Abort()
		return
	}
	c.Set(ctxDraft, d)
	c.Next()
}

func draftOf(c *gin.Context) *composer.Composer {
	return c.MustGet(ctxDraft).(*composer.Composer)
}

// fail maps a domain error to the response envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *composer.ValidationError
	var gate *wizard.GateError
	switch {
	case errors.As(err, &verr):
		response.Unprocessable(c, "validation failed", verr.Issues)
	case errors.As(err, &gate):
		response.Unprocessable(c, gate.Error(), nil)
	case errors.Is(err, ErrDraftNotFound),
		errors.Is(err, composer.ErrNotFound),
		errors.Is(err, composer.ErrNothingToUndo),
		errors.Is(err, sessions.ErrNotFound),
		errors.Is(err, tickets.ErrNotFound),
		errors.Is(err, tickets.ErrUnknownSession),
		errors.Is(err, forms.ErrFieldNotFound),
		errors.Is(err, forms.ErrOptionNotFound),
		errors.Is(err, forms.ErrTemplateNotFound),
		errors.Is(err, payments.ErrNotFound),
		errors.Is(err, persistence.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, undo.ErrDeletionPending),
		errors.Is(err, wizard.ErrTerminalStep),
		errors.Is(err, forms.ErrNoForm),
		errors.Is(err, forms.ErrMinOptions),
		errors.Is(err, forms.ErrNotChoiceField),
		errors.Is(err, forms.ErrTemplateLimit),
		errors.Is(err, persistence.ErrTemplateLimit):
		response.Conflict(c, err.Error())
	case errors.Is(err, composer.ErrInvalidPath),
		errors.Is(err, composer.ErrInvalidValue),
		errors.Is(err, composer.ErrDerivedField),
		errors.Is(err, composer.ErrReadOnlyField),
		errors.Is(err, forms.ErrUnknownFieldType),
		errors.Is(err, saletime.ErrOffsetRange):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("draft request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "internal error")
	}
}

// bind decodes the JSON body into req and answers 400 on failure.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return false
	}
	return true
}

// CreateRequest is the body for POST /drafts.
type CreateRequest struct {
	AccountID string `json:"account_id"`
}

// Create handles POST /drafts.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	d := h.reg.Create(c.Request.Context(), req.AccountID)
	response.Created(c, d.Snapshot())
}

// Get handles GET /drafts/:id.
func (h *Handler) Get(c *gin.Context) {
	response.OK(c, draftOf(c).Snapshot())
}

// Close handles DELETE /drafts/:id.
func (h *Handler) Close(c *gin.Context) {
	h.reg.Drop(draftOf(c).ID())
	response.NoContent(c)
}

// UpdateEvent handles PATCH /drafts/:id.
func (h *Handler) UpdateEvent(c *gin.Context) {
	var req composer.EventPatch
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	if err := d.UpdateEvent(req); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.Event())
}

// Save handles POST /drafts/:id/save.
func (h *Handler) Save(c *gin.Context) {
	e, err := draftOf(c).Save(c.Request.Context())
	if err != nil {
		var verr *composer.ValidationError
		if errors.As(err, &verr) {
			h.fail(c, err)
			return
		}
		response.ServiceUnavailable(c, "save failed")
		return
	}
	response.OK(c, e)
}

type stepResponse struct {
	Step  wizard.Step `json:"step"`
	Focus string      `json:"focus,omitempty"`
}

// Next handles POST /drafts/:id/next.
func (h *Handler) Next(c *gin.Context) {
	d := draftOf(c)
	step, err := d.Next()
	if err != nil {
		var gate *wizard.GateError
		if errors.As(err, &gate) {
			response.Unprocessable(c, gate.Error(), stepResponse{Step: step, Focus: d.Focused()})
			return
		}
		h.fail(c, err)
		return
	}
	response.OK(c, stepResponse{Step: step, Focus: d.Focused()})
}

// Prev handles POST /drafts/:id/prev.
func (h *Handler) Prev(c *gin.Context) {
	response.OK(c, stepResponse{Step: draftOf(c).Prev()})
}

// InvokeAction handles POST /drafts/:id/actions/:actionId.
func (h *Handler) InvokeAction(c *gin.Context) {
	if !draftOf(c).InvokeAction(c.Param("actionId")) {
		response.NotFound(c, "action expired")
		return
	}
	response.NoContent(c)
}

// CoverImageRequest is the body for PUT /drafts/:id/cover-image.
type CoverImageRequest struct {
	URL string `json:"url"`
}

// SetCoverImage handles PUT /drafts/:id/cover-image. An empty url clears the cover.
func (h *Handler) SetCoverImage(c *gin.Context) {
	var req CoverImageRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	d.SetCoverImage(req.URL)
	response.OK(c, d.Event())
}

// IngestCoverRequest is the body for POST /drafts/:id/cover.
type IngestCoverRequest struct {
	SourceURL string `json:"source_url" binding:"required,url"`
}

// IngestCover handles POST /drafts/:id/cover: copies an external image into storage in the background.
func (h *Handler) IngestCover(c *gin.Context) {
	if h.covers == nil {
		response.ServiceUnavailable(c, "cover ingest is not configured")
		return
	}
	var req IngestCoverRequest
	if !bind(c, &req) {
		return
	}
	if u, err := url.Parse(req.SourceURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		response.BadRequest(c, "source_url must be http(s)")
		return
	}
	jobID, err := h.covers.EnqueueCoverImage(c.Request.Context(), queue.CoverImagePayload{
		DraftID:   draftOf(c).ID(),
		SourceURL: req.SourceURL,
	})
	if err != nil {
		h.logger.Error("enqueue cover image", zap.Error(err))
		response.ServiceUnavailable(c, "could not queue cover image")
		return
	}
	response.Accepted(c, gin.H{"job_id": jobID})
}

// UploadURLRequest is the body for POST /drafts/:id/cover/upload-url.
type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// CoverUploadURL handles POST /drafts/:id/cover/upload-url.
func (h *Handler) CoverUploadURL(c *gin.Context) {
	if h.presign == nil {
		response.ServiceUnavailable(c, "cover upload is not configured")
		return
	}
	var req UploadURLRequest
	if !bind(c, &req) {
		return
	}
	if !storage.ValidateCoverType(req.ContentType, req.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}
	key := storage.CoverKey(draftOf(c).ID().String(), uuid.NewString()+"-"+req.Filename)
	uploadURL, err := h.presign.GeneratePresignedUploadURL(c.Request.Context(), key, contentType)
	if err != nil {
		h.logger.Error("presign cover upload", zap.Error(err))
		response.Internal(c, "could not create upload url")
		return
	}
	response.OK(c, gin.H{
		"upload_url": uploadURL,
		"key":        key,
		"public_url": h.presign.PublicObjectURL(key),
	})
}
