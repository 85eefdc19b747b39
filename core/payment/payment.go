package payment

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/irsalhamdi/expert-class/database"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusExpired    = "expired"
)

const (
	GatewayDuitku = "duitku"
	GatewayStripe = "stripe"
)

var (
	ErrNotFound       = errors.New("payment not found")
	ErrFinal          = errors.New("payment already succeeded")
	ErrNotPayable     = errors.New("booking cannot be paid")
	ErrGatewayOff     = errors.New("payment gateway is not enabled")
	ErrUnknownOutcome = errors.New("unknown gateway result")
)

// Metadata keeps gateway details, like virtual account numbers, next to the payment.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	return database.ScanJSON(src, (*map[string]string)(m))
}

type Payment struct {
	ID            string     `json:"id" db:"payment_id"`
	BookingID     string     `json:"bookingId" db:"booking_id"`
	UserID        string     `json:"userId" db:"user_id"`
	Amount        int64      `json:"amount" db:"amount"`
	Currency      string     `json:"currency" db:"currency"`
	Gateway       string     `json:"gateway" db:"gateway"`
	PaymentMethod string     `json:"paymentMethod" db:"payment_method"`
	Reference     string     `json:"reference" db:"reference"`
	PaymentURL    string     `json:"paymentUrl" db:"payment_url"`
	Status        string     `json:"status" db:"status"`
	Metadata      Metadata   `json:"metadata" db:"metadata"`
	PaidAt        *time.Time `json:"paidAt" db:"paid_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

type CheckoutNew struct {
	BookingID     string `json:"bookingId" validate:"required,uuid"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,max=8"`
}

type StatusUp struct {
	Status   string            `json:"status" validate:"required,oneof=pending processing success failed expired"`
	Metadata map[string]string `json:"metadata"`
}

type Filter struct {
	BookingID string `db:"booking_id"`
	UserID    string `db:"user_id"`
	Status    string `db:"status"`
	Gateway   string `db:"gateway"`
	Limit     int    `db:"limit"`
	Offset    int    `db:"offset"`
}
