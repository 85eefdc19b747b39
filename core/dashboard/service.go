package dashboard

import (
	"context"
	"time"

	"github.com/irsalhamdi/expert-class/core/booking"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/expert"
	"github.com/irsalhamdi/expert-class/core/schedule"
	"github.com/irsalhamdi/expert-class/core/user"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func revenue(ctx context.Context, db sqlx.ExtContext, s scope, now time.Time) (Revenue, error) {
	all, err := sumPaid(ctx, db, s)
	if err != nil {
		return Revenue{}, err
	}

	s.From = monthStart(now)
	month, err := sumPaid(ctx, db, s)
	if err != nil {
		return Revenue{}, err
	}

	r := Revenue{
		Total:     all.Amount,
		ThisMonth: month.Amount,
		Payments:  all.Count,
		AvgOrder:  decimal.Zero,
	}
	if all.Count > 0 {
		r.AvgOrder = decimal.NewFromInt(all.Amount).DivRound(decimal.NewFromInt(int64(all.Count)), 2)
	}
	return r, nil
}

func Admin(ctx context.Context, db sqlx.ExtContext, now time.Time) (AdminSummary, error) {
	var (
		sum AdminSummary
		err error
	)

	if sum.Users, err = user.CountByRole(ctx, db); err != nil {
		return AdminSummary{}, err
	}
	if sum.Experts, err = expert.CountByStatus(ctx, db); err != nil {
		return AdminSummary{}, err
	}
	if sum.Classes, err = class.CountByStatus(ctx, db, ""); err != nil {
		return AdminSummary{}, err
	}
	if sum.Bookings, err = booking.CountByStatus(ctx, db, "", ""); err != nil {
		return AdminSummary{}, err
	}
	if sum.Revenue, err = revenue(ctx, db, scope{}, now); err != nil {
		return AdminSummary{}, err
	}
	if sum.RecentBookings, err = recentBookings(ctx, db, recentLimit); err != nil {
		return AdminSummary{}, err
	}

	return sum, nil
}

func Expert(ctx context.Context, db sqlx.ExtContext, expertID string, now time.Time) (ExpertSummary, error) {
	var (
		sum ExpertSummary
		err error
	)

	if sum.Classes, err = class.CountByStatus(ctx, db, expertID); err != nil {
		return ExpertSummary{}, err
	}
	if sum.Bookings, err = booking.CountByStatus(ctx, db, "", expertID); err != nil {
		return ExpertSummary{}, err
	}
	if sum.Revenue, err = revenue(ctx, db, scope{ExpertID: expertID}, now); err != nil {
		return ExpertSummary{}, err
	}

	ups, err := schedule.ListUpcoming(ctx, db, now, expertID, "", upcomingLimit)
	if err != nil {
		return ExpertSummary{}, err
	}
	sum.Upcoming = make([]Session, len(ups))
	for i, u := range ups {
		sum.Upcoming[i] = Session{Upcoming: u, FillRate: fillRate(u.BookedSeats, u.Capacity)}
	}

	return sum, nil
}

// fillRate is booked over capacity in percent, rounded to one decimal.
func fillRate(booked, capacity int) decimal.Decimal {
	if capacity <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(booked)).Mul(hundred).DivRound(decimal.NewFromInt(int64(capacity)), 1)
}

func Student(ctx context.Context, db sqlx.ExtContext, userID string, now time.Time) (StudentSummary, error) {
	var (
		sum StudentSummary
		err error
	)

	if sum.Bookings, err = booking.CountByStatus(ctx, db, userID, ""); err != nil {
		return StudentSummary{}, err
	}

	spent, err := sumPaid(ctx, db, scope{UserID: userID})
	if err != nil {
		return StudentSummary{}, err
	}
	sum.TotalSpent = spent.Amount

	if sum.Upcoming, err = schedule.ListUpcoming(ctx, db, now, "", userID, upcomingLimit); err != nil {
		return StudentSummary{}, err
	}

	return sum, nil
}

// RevenueSeries returns the monthly revenue of the last months, the
// current month included, oldest first. An empty expertID covers every
// class.
func RevenueSeries(ctx context.Context, db sqlx.ExtContext, expertID string, months int, now time.Time) ([]Month, error) {
	if months <= 0 {
		months = DefaultMonths
	}
	if months > MaxMonths {
		months = MaxMonths
	}

	first := monthStart(now).AddDate(0, -(months - 1), 0)
	ps, err := listPaid(ctx, db, scope{ExpertID: expertID, From: first})
	if err != nil {
		return nil, err
	}

	series := make([]Month, months)
	index := make(map[string]int, months)
	for i := range series {
		key := first.AddDate(0, i, 0).Format("2006-01")
		series[i].Month = key
		index[key] = i
	}

	for _, p := range ps {
		i, ok := index[p.PaidAt.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		series[i].Revenue += p.Amount
		series[i].Payments++
	}

	for i := 1; i < len(series); i++ {
		series[i].Growth = growth(series[i-1].Revenue, series[i].Revenue)
	}

	return series, nil
}

func growth(prev, cur int64) *decimal.Decimal {
	if prev == 0 {
		return nil
	}
	p := decimal.NewFromInt(prev)
	g := decimal.NewFromInt(cur).Sub(p).Mul(hundred).DivRound(p, 2)
	return &g
}
