package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/expert-class/core/booking"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/payment/duitku"
	"github.com/irsalhamdi/expert-class/core/user"
	"github.com/irsalhamdi/expert-class/database"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Transition moves the payment to status and applies the effect on its
// booking: success confirms it, failed and expired mark its payment as
// failed, pending and processing leave it alone. A successful payment is
// final. Transition must run inside the caller's transaction and reports
// whether the booking got confirmed by this call.
func Transition(ctx context.Context, tx sqlx.ExtContext, log logrus.FieldLogger, id, status string, meta Metadata) (Payment, bool, error) {
	p, err := Fetch(ctx, tx, id)
	if err != nil {
		return Payment{}, false, err
	}

	if p.Status == StatusSuccess && status != StatusSuccess {
		return Payment{}, false, fmt.Errorf("%w: payment[%s] cannot become %s", ErrFinal, id, status)
	}

	if p.Status != status {
		if p.Metadata == nil {
			p.Metadata = Metadata{}
		}
		for k, v := range meta {
			p.Metadata[k] = v
		}

		now := time.Now().UTC()
		p.Status = status
		p.UpdatedAt = now
		if status == StatusSuccess {
			p.PaidAt = &now
		}

		changed, err := UpdateStatus(ctx, tx, p)
		if err != nil {
			return Payment{}, false, err
		}
		if !changed {
			return Payment{}, false, fmt.Errorf("%w: payment[%s]", ErrFinal, id)
		}
	}

	var confirmed bool
	switch status {
	case StatusSuccess:
		if confirmed, err = booking.Confirm(ctx, tx, log, p.BookingID); err != nil {
			return Payment{}, false, err
		}
	case StatusFailed, StatusExpired:
		if _, err := booking.FailPayment(ctx, tx, p.BookingID); err != nil {
			return Payment{}, false, err
		}
	}

	return p, confirmed, nil
}

// Service runs payment flows that span the database and a gateway.
type Service struct {
	DB     *sqlx.DB
	Log    logrus.FieldLogger
	Duitku *duitku.Client
	Notify *booking.Notifier
}

// Apply runs Transition in its own transaction and queues the confirmation
// email once committed.
func (s *Service) Apply(ctx context.Context, id, status string, meta Metadata) (Payment, error) {
	var (
		p         Payment
		confirmed bool
	)
	err := database.TransactionContext(ctx, s.DB, func(tx sqlx.ExtContext) error {
		var err error
		p, confirmed, err = Transition(ctx, tx, s.Log, id, status, meta)
		return err
	})
	if err != nil {
		return Payment{}, err
	}

	if confirmed {
		s.Notify.Confirmed(p.BookingID)
	}
	return p, nil
}

// prepare returns the payment to use for the booking on gateway: the
// latest pending one when it exists, otherwise a new pending payment that
// becomes the current payment of the booking. fresh reports a new payment.
func (s *Service) prepare(ctx context.Context, clm claims.Claims, bookingID, gateway, method string) (p Payment, b booking.Booking, fresh bool, err error) {
	err = database.TransactionContext(ctx, s.DB, func(tx sqlx.ExtContext) error {
		var err error
		if b, err = booking.Fetch(ctx, tx, bookingID); err != nil {
			return err
		}
		if !clm.Owns(b.UserID) {
			return booking.ErrForbidden
		}
		if b.Status != booking.StatusPending || b.PaymentStatus == booking.PaymentPaid {
			return ErrNotPayable
		}

		p, err = FetchPending(ctx, tx, bookingID, gateway)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, ErrNotFound):
			return err
		}

		now := time.Now().UTC()
		p = Payment{
			ID:            validate.GenerateID(),
			BookingID:     b.ID,
			UserID:        b.UserID,
			Amount:        b.TotalAmount,
			Currency:      b.Currency,
			Gateway:       gateway,
			PaymentMethod: method,
			Status:        StatusPending,
			Metadata:      Metadata{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := Create(ctx, tx, p); err != nil {
			return err
		}
		fresh = true

		return booking.SetPayment(ctx, tx, b.ID, p.ID)
	})
	return p, b, fresh, err
}

// abandon fails a payment whose gateway transaction could not be opened so
// the next checkout starts over. The booking is left as it is.
func (s *Service) abandon(ctx context.Context, p Payment, cause error) {
	p.Status = StatusFailed
	p.Metadata["error"] = cause.Error()
	p.UpdatedAt = time.Now().UTC()

	if _, err := UpdateStatus(ctx, s.DB, p); err != nil {
		s.Log.WithError(err).WithField("payment_id", p.ID).Error("abandoning payment")
	}
}

// Checkout opens, or reuses, the Duitku transaction of the booking.
func (s *Service) Checkout(ctx context.Context, clm claims.Claims, nw CheckoutNew) (Payment, error) {
	p, b, fresh, err := s.prepare(ctx, clm, nw.BookingID, GatewayDuitku, nw.PaymentMethod)
	if err != nil {
		return Payment{}, err
	}
	if !fresh {
		return p, nil
	}

	in := duitku.InquiryRequest{
		OrderID:       p.ID,
		Amount:        p.Amount,
		PaymentMethod: nw.PaymentMethod,
		Email:         clm.Email,
	}
	if c, err := class.Fetch(ctx, s.DB, b.ClassID); err == nil {
		in.ProductDetails = c.Title
	}
	if u, err := user.Fetch(ctx, s.DB, b.UserID); err == nil {
		in.Email = u.Email
		in.CustomerName = u.Name
		in.Phone = u.Phone
	}

	inq, err := s.Duitku.Inquiry(ctx, in)
	if err != nil {
		s.abandon(ctx, p, err)
		return Payment{}, err
	}

	p.Reference = inq.Reference
	p.PaymentURL = inq.PaymentURL
	if inq.VANumber != "" {
		p.Metadata["vaNumber"] = inq.VANumber
	}
	if inq.QRString != "" {
		p.Metadata["qrString"] = inq.QRString
	}
	p.UpdatedAt = time.Now().UTC()

	if err := UpdateGateway(ctx, s.DB, p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

// Callback applies a verified Duitku callback.
func (s *Service) Callback(ctx context.Context, cb duitku.Callback) (Payment, error) {
	if err := s.Duitku.Verify(cb); err != nil {
		return Payment{}, err
	}

	var status string
	switch cb.ResultCode {
	case duitku.ResultSuccess:
		status = StatusSuccess
	case duitku.ResultFailed:
		status = StatusFailed
	case duitku.ResultExpired:
		status = StatusExpired
	default:
		return Payment{}, fmt.Errorf("%w: result code %q", ErrUnknownOutcome, cb.ResultCode)
	}

	meta := Metadata{"resultCode": cb.ResultCode}
	if cb.Reference != "" {
		meta["reference"] = cb.Reference
	}
	if cb.PaymentCode != "" {
		meta["paymentCode"] = cb.PaymentCode
	}

	return s.Apply(ctx, cb.MerchantOrderID, status, meta)
}

// Sync asks Duitku where the transaction stands and applies the answer.
func (s *Service) Sync(ctx context.Context, id string) (Payment, error) {
	p, err := Fetch(ctx, s.DB, id)
	if err != nil {
		return Payment{}, err
	}
	if p.Gateway != GatewayDuitku {
		return Payment{}, fmt.Errorf("%w: payment[%s] uses %s", ErrGatewayOff, id, p.Gateway)
	}
	if p.Status == StatusSuccess {
		return p, nil
	}

	st, err := s.Duitku.TransactionStatus(ctx, p.ID)
	if err != nil {
		return Payment{}, err
	}

	status := StatusPending
	switch st.StatusCode {
	case duitku.CodeSuccess:
		status = StatusSuccess
	case duitku.CodeFailed:
		status = StatusFailed
	}
	if status == StatusPending || status == p.Status {
		return p, nil
	}

	return s.Apply(ctx, p.ID, status, Metadata{"statusCode": st.StatusCode})
}
