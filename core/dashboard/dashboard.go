// Package dashboard aggregates bookings, payments and schedules into the
// summaries shown on the admin, expert and student home pages.
package dashboard

import (
	"time"

	"github.com/irsalhamdi/expert-class/core/schedule"
	"github.com/shopspring/decimal"
)

const (
	DefaultMonths = 6
	MaxMonths     = 24

	recentLimit   = 10
	upcomingLimit = 10
)

type Revenue struct {
	Total     int64           `json:"total"`
	ThisMonth int64           `json:"thisMonth"`
	Payments  int             `json:"payments"`
	AvgOrder  decimal.Decimal `json:"averageOrderValue"`
}

// RecentBooking is a booking with enough context to list it without
// further lookups.
type RecentBooking struct {
	ID            string    `json:"id" db:"booking_id"`
	ClassID       string    `json:"classId" db:"class_id"`
	ClassTitle    string    `json:"classTitle" db:"class_title"`
	UserEmail     string    `json:"userEmail" db:"user_email"`
	Status        string    `json:"status" db:"status"`
	PaymentStatus string    `json:"paymentStatus" db:"payment_status"`
	TotalAmount   int64     `json:"totalAmount" db:"total_amount"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

type AdminSummary struct {
	Users          map[string]int  `json:"users"`
	Experts        map[string]int  `json:"experts"`
	Classes        map[string]int  `json:"classes"`
	Bookings       map[string]int  `json:"bookings"`
	Revenue        Revenue         `json:"revenue"`
	RecentBookings []RecentBooking `json:"recentBookings"`
}

// Session is an upcoming schedule with its fill rate in percent.
type Session struct {
	schedule.Upcoming
	FillRate decimal.Decimal `json:"fillRate"`
}

type ExpertSummary struct {
	Classes  map[string]int `json:"classes"`
	Bookings map[string]int `json:"bookings"`
	Revenue  Revenue        `json:"revenue"`
	Upcoming []Session      `json:"upcoming"`
}

type StudentSummary struct {
	Bookings   map[string]int      `json:"bookings"`
	TotalSpent int64               `json:"totalSpent"`
	Upcoming   []schedule.Upcoming `json:"upcoming"`
}

// Month is one point of a revenue series. Growth is the change against the
// previous month in percent, nil when there is nothing to compare with.
type Month struct {
	Month    string           `json:"month"`
	Revenue  int64            `json:"revenue"`
	Payments int              `json:"payments"`
	Growth   *decimal.Decimal `json:"growth"`
}
