package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/expert-class/core/booking"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/coretest"
	"github.com/irsalhamdi/expert-class/core/dashboard"
	"github.com/irsalhamdi/expert-class/core/payment"
	"github.com/irsalhamdi/expert-class/core/schedule"
	"github.com/irsalhamdi/expert-class/database/dbtest"
	"github.com/irsalhamdi/expert-class/validate"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var now = time.Date(2026, 5, 15, 12, 0, 0, 0, time.UTC)

func paid(t *testing.T, db *sqlx.DB, b booking.Booking, amount int64, at time.Time) {
	t.Helper()

	p := payment.Payment{
		ID:        validate.GenerateID(),
		BookingID: b.ID,
		UserID:    b.UserID,
		Amount:    amount,
		Currency:  b.Currency,
		Gateway:   payment.GatewayDuitku,
		Status:    payment.StatusSuccess,
		Metadata:  payment.Metadata{},
		PaidAt:    &at,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := payment.Create(context.Background(), db, p); err != nil {
		t.Fatalf("creating payment: %v", err)
	}
}

type fixture struct {
	db      *sqlx.DB
	expert  string
	student string
	sched   schedule.Schedule
}

func seed(t *testing.T) fixture {
	t.Helper()

	db := dbtest.New(t)
	ctx := context.Background()

	e, _ := coretest.Expert(t, db, "Dashboards")
	c := coretest.Class(t, db, e.ID, 100000, class.StatusPublished)
	s := coretest.Schedule(t, db, c.ID, 1, 4)
	coretest.Class(t, db, e.ID, 100000, class.StatusDraft)

	student := coretest.User(t, db, claims.RoleStudent)
	other := coretest.User(t, db, claims.RoleStudent)

	book := func(userID string) booking.Booking {
		b, err := booking.Book(ctx, db, userID, booking.BookingNew{ClassID: c.ID, ScheduleIDs: []string{s.ID}})
		if err != nil {
			t.Fatalf("booking: %v", err)
		}
		return b
	}

	paid(t, db, book(student.ID), 100000, time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC))
	paid(t, db, book(student.ID), 300000, time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC))
	paid(t, db, book(other.ID), 200000, time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC))
	book(other.ID)

	if _, err := schedule.ReserveSeat(ctx, db, s.ID); err != nil {
		t.Fatal(err)
	}

	return fixture{db: db, expert: e.ID, student: student.ID, sched: s}
}

func TestAdmin(t *testing.T) {
	f := seed(t)

	sum, err := dashboard.Admin(context.Background(), f.db, now)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(map[string]int{"expert": 1, "student": 2}, sum.Users); diff != "" {
		t.Errorf("users mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"published": 1, "draft": 1}, sum.Classes); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"pending": 4}, sum.Bookings); diff != "" {
		t.Errorf("bookings mismatch (-want +got):\n%s", diff)
	}

	r := sum.Revenue
	if r.Total != 600000 || r.ThisMonth != 500000 || r.Payments != 3 {
		t.Errorf("unexpected revenue %+v", r)
	}
	if !r.AvgOrder.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("expected average order 200000, got %s", r.AvgOrder)
	}

	if len(sum.RecentBookings) != 4 {
		t.Fatalf("expected 4 recent bookings, got %d", len(sum.RecentBookings))
	}
	if sum.RecentBookings[0].ClassTitle == "" || sum.RecentBookings[0].UserEmail == "" {
		t.Errorf("recent booking lacks context: %+v", sum.RecentBookings[0])
	}
}

func TestExpert(t *testing.T) {
	f := seed(t)
	ctx := context.Background()

	sum, err := dashboard.Expert(ctx, f.db, f.expert, now)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Revenue.Total != 600000 {
		t.Errorf("expected revenue 600000, got %d", sum.Revenue.Total)
	}
	if len(sum.Upcoming) != 1 {
		t.Fatalf("expected one upcoming session, got %d", len(sum.Upcoming))
	}
	if got := sum.Upcoming[0].FillRate; !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("expected fill rate 25, got %s", got)
	}

	stranger, _ := coretest.Expert(t, f.db, "Nobody")
	sum, err = dashboard.Expert(ctx, f.db, stranger.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Revenue.Total != 0 || len(sum.Upcoming) != 0 || !sum.Revenue.AvgOrder.IsZero() {
		t.Errorf("expected an empty dashboard, got %+v", sum)
	}
}

func TestStudent(t *testing.T) {
	f := seed(t)

	sum, err := dashboard.Student(context.Background(), f.db, f.student, now)
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalSpent != 400000 {
		t.Errorf("expected 400000 spent, got %d", sum.TotalSpent)
	}
	if sum.Bookings["pending"] != 2 {
		t.Errorf("expected 2 bookings, got %v", sum.Bookings)
	}
	// Only confirmed bookings count as upcoming sessions.
	if len(sum.Upcoming) != 0 {
		t.Errorf("expected no upcoming sessions, got %d", len(sum.Upcoming))
	}
}

func TestRevenueSeries(t *testing.T) {
	f := seed(t)

	series, err := dashboard.RevenueSeries(context.Background(), f.db, "", 3, now)
	if err != nil {
		t.Fatal(err)
	}

	months := make([]string, len(series))
	revenue := make([]int64, len(series))
	for i, m := range series {
		months[i] = m.Month
		revenue[i] = m.Revenue
	}
	if diff := cmp.Diff([]string{"2026-03", "2026-04", "2026-05"}, months); diff != "" {
		t.Errorf("months mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{0, 100000, 500000}, revenue); diff != "" {
		t.Errorf("revenue mismatch (-want +got):\n%s", diff)
	}

	if series[1].Growth != nil {
		t.Errorf("growth after an empty month must be nil, got %s", series[1].Growth)
	}
	if series[2].Growth == nil || !series[2].Growth.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected 400%% growth, got %v", series[2].Growth)
	}

	series, err = dashboard.RevenueSeries(context.Background(), f.db, "", 100, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != dashboard.MaxMonths {
		t.Errorf("expected %d months, got %d", dashboard.MaxMonths, len(series))
	}
}
