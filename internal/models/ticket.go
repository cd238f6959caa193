package models

// TicketState is whether a ticket is currently on sale.
type TicketState string

const (
	TicketSelling TicketState = "selling"
	TicketStopped TicketState = "stopped"
)

// SaleTimeType selects how a ticket's per-session sale windows are produced.
type SaleTimeType string

const (
	// SaleTimeUniform shares one manually entered window across all linked sessions.
	SaleTimeUniform SaleTimeType = "uniform"
	// SaleTimePerOffset derives each linked session's window from the ticket offset.
	SaleTimePerOffset SaleTimeType = "per_offset"
)

// Offset bases are minute multipliers.
const (
	OffsetBaseMinute = 1
	OffsetBaseHour   = 60
	OffsetBaseDay    = 1440
)

// Ticket limits.
const (
	MaxTicketPrice = 3_000_000
	MaxTicketCount = 100_000
)

// GlobalTime is the shared sale window of a uniform ticket.
type GlobalTime struct {
	CommonStartTime string `json:"common_start_time"`
	CommonEndTime   string `json:"common_end_time"`
}

// Offset is the displacement of a sale window from the session it belongs to.
type Offset struct {
	StartOffset     int `json:"start_offset" validate:"min=0,max=100000"`
	StartOffsetBase int `json:"start_offset_base" validate:"oneof=0 1 60 1440"`
	EndOffset       int `json:"end_offset" validate:"min=0,max=100000"`
	EndOffsetBase   int `json:"end_offset_base" validate:"oneof=0 1 60 1440"`
}

// SaleTime is the derived sale window of a ticket for one session.
type SaleTime struct {
	SessionID string `json:"session_id" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// Ticket is a purchasable item tied to one or more sessions.
type Ticket struct {
	ID           string       `json:"id"`
	Name         string       `json:"name" validate:"required,max=50"`
	Price        int          `json:"price" validate:"min=0,max=3000000"`
	Count        int          `json:"count" validate:"min=1,max=100000"`
	State        TicketState  `json:"state" validate:"oneof=selling stopped"`
	SaleTimeType SaleTimeType `json:"sale_time_type" validate:"oneof=uniform per_offset"`
	GlobalTime   *GlobalTime  `json:"global_time,omitempty"`
	Offset       Offset       `json:"offset"`
	SaleTime     []SaleTime   `json:"sale_time" validate:"min=1,dive"`
}

// HasSession reports whether the ticket is linked to sessionID.
func (t Ticket) HasSession(sessionID string) bool {
	for _, st := range t.SaleTime {
		if st.SessionID == sessionID {
			return true
		}
	}
	return false
}
