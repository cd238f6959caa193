package models

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls whether a published event is listed publicly.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ContentBlockType is the kind of a block in the event introduction.
type ContentBlockType string

const (
	ContentBlockText  ContentBlockType = "text"
	ContentBlockImage ContentBlockType = "image"
)

// ContentBlock is one text or image block of the event introduction.
type ContentBlock struct {
	ID       string           `json:"id"`
	Type     ContentBlockType `json:"type" validate:"oneof=text image"`
	Text     string           `json:"text,omitempty"`
	ImageURL string           `json:"image_url,omitempty"`
}

// FAQBlock is a question/answer pair shown on the event page.
type FAQBlock struct {
	ID       string `json:"id"`
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// Event is the draft aggregate edited in the creation wizard.
type Event struct {
	ID            uuid.UUID      `json:"id"`
	AccountID     string         `json:"account_id"`
	CoverImage    string         `json:"cover_image,omitempty"`
	EventName     string         `json:"event_name"`
	Description   string         `json:"description,omitempty"`
	Location      string         `json:"location,omitempty"`
	ContentBlocks []ContentBlock `json:"content_blocks"`
	FAQBlocks     []FAQBlock     `json:"faq_blocks"`
	Sessions      []Session      `json:"sessions"`
	Tickets       []Ticket       `json:"tickets"`
	FormBlock     *FormBlock     `json:"form_block,omitempty"`
	Visibility    Visibility     `json:"visibility"`
	BankTransfer  BankTransfer   `json:"bank_transfer"`
	CashPayment   CashPayment    `json:"cash_payment"`
	CreatedAt     time.Time      `json:"created_at"`
	SavedAt       *time.Time     `json:"saved_at,omitempty"`
}
