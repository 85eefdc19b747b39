package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/irsalhamdi/expert-class/api/background"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/schedule"
	"github.com/irsalhamdi/expert-class/core/user"
	"github.com/irsalhamdi/expert-class/email"
	"github.com/jmoiron/sqlx"
)

// Notifier mails students once their booking is confirmed. A nil Notifier
// sends nothing.
type Notifier struct {
	DB     *sqlx.DB
	Mailer email.Mailer
	BG     *background.Background
}

// Confirmed queues the confirmation email. Call it after the transaction
// that confirmed the booking has committed.
func (n *Notifier) Confirmed(bookingID string) {
	if n == nil || n.Mailer == nil {
		return
	}

	n.BG.Run("booking-confirmed-email", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		msg, err := n.confirmation(ctx, bookingID)
		if err != nil {
			return err
		}
		return n.Mailer.Send(ctx, msg)
	})
}

func (n *Notifier) confirmation(ctx context.Context, bookingID string) (email.Message, error) {
	b, err := Fetch(ctx, n.DB, bookingID)
	if err != nil {
		return email.Message{}, err
	}
	u, err := user.Fetch(ctx, n.DB, b.UserID)
	if err != nil {
		return email.Message{}, fmt.Errorf("fetching user[%s]: %w", b.UserID, err)
	}
	c, err := class.Fetch(ctx, n.DB, b.ClassID)
	if err != nil {
		return email.Message{}, fmt.Errorf("fetching class[%s]: %w", b.ClassID, err)
	}
	sessions, err := schedule.ListByBooking(ctx, n.DB, b.ID)
	if err != nil {
		return email.Message{}, err
	}

	var md strings.Builder
	fmt.Fprintf(&md, "# Your booking is confirmed\n\n")
	fmt.Fprintf(&md, "Hi %s, your seat in **%s** is reserved.\n\n", displayName(u), c.Title)
	if len(sessions) > 0 {
		md.WriteString("Sessions:\n\n")
		for _, s := range sessions {
			fmt.Fprintf(&md, "- Session %d: %s\n", s.SessionNumber, s.StartAt.Format("Mon, 02 Jan 2006 15:04 MST"))
		}
		md.WriteString("\n")
	}
	fmt.Fprintf(&md, "Amount paid: %s %d\n", b.Currency, b.TotalAmount)

	return email.Message{
		To:       u.Email,
		ToName:   u.Name,
		Subject:  "Booking confirmed: " + c.Title,
		Markdown: md.String(),
	}, nil
}

func displayName(u user.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
