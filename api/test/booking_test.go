package test

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/irsalhamdi/expert-class/core/booking"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/payment"
	"github.com/irsalhamdi/expert-class/core/payment/duitku"
	"github.com/irsalhamdi/expert-class/core/schedule"
)

// publishedClass creates, schedules and publishes a class through the API.
func publishedClass(t *testing.T, e *TestEnv, token string, price int64, capacity int) (class.Class, schedule.Schedule) {
	t.Helper()

	var c class.Class
	code := e.Do(t, http.MethodPost, "/classes", token, map[string]any{
		"title": "Go for backend engineers",
		"price": price,
		"type":  class.TypeOnline,
	}, &c)
	expect(t, http.StatusCreated, code, "creating class")

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	var s schedule.Schedule
	code = e.Do(t, http.MethodPost, "/classes/"+c.ID+"/schedules", token, map[string]any{
		"sessionNumber": 1,
		"startAt":       start,
		"endAt":         start.Add(2 * time.Hour),
		"capacity":      capacity,
	}, &s)
	expect(t, http.StatusCreated, code, "creating schedule")

	code = e.Do(t, http.MethodPut, "/classes/"+c.ID+"/status", token, map[string]string{"status": class.StatusPublished}, &c)
	expect(t, http.StatusOK, code, "publishing class")

	return c, s
}

func (e *TestEnv) callback(t *testing.T, p payment.Payment, result string) int {
	t.Helper()

	amount := strconv.FormatInt(p.Amount, 10)
	form := url.Values{
		"merchantCode":    {merchant},
		"amount":          {amount},
		"merchantOrderId": {p.ID},
		"paymentCode":     {p.PaymentMethod},
		"resultCode":      {result},
		"reference":       {p.Reference},
		"signature":       {e.Duitku.Sign(amount, p.ID)},
	}

	w, err := e.Client().Post(e.URL+"/payments/duitku/callback", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	w.Body.Close()
	return w.StatusCode
}

func TestBookAndPayWithDuitku(t *testing.T) {
	e := NewTestEnv(t)
	_, expertToken := e.Expert(t)
	c, s := publishedClass(t, e, expertToken, 150000, 2)

	student := e.Student(t)

	var b booking.Booking
	code := e.Do(t, http.MethodPost, "/bookings", student, map[string]any{
		"classId":     c.ID,
		"scheduleIds": []string{s.ID},
	}, &b)
	expect(t, http.StatusCreated, code, "booking")
	if b.Status != booking.StatusPending || b.TotalAmount != 150000 {
		t.Fatalf("unexpected booking: %+v", b)
	}

	var p payment.Payment
	code = e.Do(t, http.MethodPost, "/payments", student, map[string]string{"bookingId": b.ID, "paymentMethod": "BC"}, &p)
	expect(t, http.StatusOK, code, "checkout")
	if p.Amount != 150000 || p.Reference != "DK-"+p.ID || p.Metadata["vaNumber"] != "8801234567" {
		t.Fatalf("unexpected payment: %+v", p)
	}

	// The seat is only taken once the gateway settles.
	var got schedule.Schedule
	e.Do(t, http.MethodGet, "/schedules/"+s.ID, student, nil, &got)
	if got.BookedSeats != 0 {
		t.Fatalf("expected no seat taken before payment, got %d", got.BookedSeats)
	}

	expect(t, http.StatusOK, e.callback(t, p, duitku.ResultSuccess), "callback")
	// Replayed callbacks are acknowledged without side effects.
	expect(t, http.StatusOK, e.callback(t, p, duitku.ResultSuccess), "replayed callback")

	code = e.Do(t, http.MethodGet, "/bookings/"+b.ID, student, nil, &b)
	expect(t, http.StatusOK, code, "fetching booking")
	if b.Status != booking.StatusConfirmed || b.PaymentStatus != booking.PaymentPaid {
		t.Fatalf("expected confirmed paid booking, got %s/%s", b.Status, b.PaymentStatus)
	}

	e.Do(t, http.MethodGet, "/schedules/"+s.ID, student, nil, &got)
	if got.BookedSeats != 1 {
		t.Fatalf("expected one seat taken, got %d", got.BookedSeats)
	}

	var mine []booking.Booking
	code = e.Do(t, http.MethodGet, "/bookings/mine", student, nil, &mine)
	expect(t, http.StatusOK, code, "listing bookings")
	if len(mine) != 1 || mine[0].ID != b.ID {
		t.Fatalf("unexpected bookings: %+v", mine)
	}

	var ps []payment.Payment
	code = e.Do(t, http.MethodGet, "/bookings/"+b.ID+"/payments", expertToken, nil, &ps)
	expect(t, http.StatusOK, code, "expert listing payments of their class")
	if len(ps) != 1 || ps[0].Status != payment.StatusSuccess {
		t.Fatalf("unexpected payments: %+v", ps)
	}
}

func TestCallbackRejectsForgedSignature(t *testing.T) {
	e := NewTestEnv(t)
	_, expertToken := e.Expert(t)
	c, s := publishedClass(t, e, expertToken, 90000, 5)
	student := e.Student(t)

	var b booking.Booking
	e.Do(t, http.MethodPost, "/bookings", student, map[string]any{"classId": c.ID, "scheduleIds": []string{s.ID}}, &b)

	var p payment.Payment
	code := e.Do(t, http.MethodPost, "/payments", student, map[string]string{"bookingId": b.ID}, &p)
	expect(t, http.StatusOK, code, "checkout")

	form := url.Values{
		"merchantCode":    {merchant},
		"amount":          {"1"},
		"merchantOrderId": {p.ID},
		"resultCode":      {duitku.ResultSuccess},
		"signature":       {e.Duitku.Sign(strconv.FormatInt(p.Amount, 10), p.ID)},
	}
	w, err := e.Client().Post(e.URL+"/payments/duitku/callback", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	w.Body.Close()
	expect(t, http.StatusBadRequest, w.StatusCode, "forged callback")

	e.Do(t, http.MethodGet, "/bookings/"+b.ID, student, nil, &b)
	if b.Status != booking.StatusPending {
		t.Fatalf("forged callback changed the booking to %s", b.Status)
	}
}

func TestBookingAccess(t *testing.T) {
	e := NewTestEnv(t)
	_, expertToken := e.Expert(t)
	c, s := publishedClass(t, e, expertToken, 50000, 5)

	code := e.Do(t, http.MethodPost, "/bookings", "", map[string]any{"classId": c.ID, "scheduleIds": []string{s.ID}}, nil)
	expect(t, http.StatusUnauthorized, code, "anonymous booking")

	student := e.Student(t)
	var b booking.Booking
	e.Do(t, http.MethodPost, "/bookings", student, map[string]any{"classId": c.ID, "scheduleIds": []string{s.ID}}, &b)

	stranger := e.Student(t)
	code = e.Do(t, http.MethodPost, "/payments", stranger, map[string]string{"bookingId": b.ID}, nil)
	expect(t, http.StatusForbidden, code, "paying someone else's booking")

	code = e.Do(t, http.MethodGet, "/bookings", student, nil, nil)
	expect(t, http.StatusForbidden, code, "student listing all bookings")

	code = e.Do(t, http.MethodPost, "/classes", student, map[string]any{"title": "Nope", "type": class.TypeOnline}, nil)
	expect(t, http.StatusForbidden, code, "student creating a class")

	var all []booking.Booking
	code = e.Do(t, http.MethodGet, "/bookings", e.Admin(t), nil, &all)
	expect(t, http.StatusOK, code, "admin listing bookings")
	if len(all) != 1 {
		t.Fatalf("expected one booking, got %d", len(all))
	}
}
