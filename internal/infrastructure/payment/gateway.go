package payment

import (
	"context"
	"errors"
)

type SessionStatus string

const (
	SessionOpen     SessionStatus = "open"
	SessionComplete SessionStatus = "complete"
	SessionExpired  SessionStatus = "expired"
)

// LineItem is one order line as presented to the gateway. UnitAmount is in
// minor currency units (cents).
type LineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int32  `json:"quantity"`
}

type SessionRequest struct {
	LineItems  []LineItem        `json:"line_items"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	Metadata   map[string]string `json:"metadata"`
}

// Session is the gateway's hosted payment page for one checkout.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Gateway creates hosted payment sessions and answers status queries.
// Completion itself arrives asynchronously through signed webhook events.
type Gateway interface {
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)
	CheckSession(ctx context.Context, sessionID string) (SessionStatus, error)
}
