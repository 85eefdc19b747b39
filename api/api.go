package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/expert-class/api/middleware"
	"github.com/irsalhamdi/expert-class/api/web"
	"github.com/irsalhamdi/expert-class/core/auth"
	"github.com/irsalhamdi/expert-class/core/benefit"
	"github.com/irsalhamdi/expert-class/core/booking"
	"github.com/irsalhamdi/expert-class/core/category"
	"github.com/irsalhamdi/expert-class/core/claims"
	"github.com/irsalhamdi/expert-class/core/class"
	"github.com/irsalhamdi/expert-class/core/consultant"
	"github.com/irsalhamdi/expert-class/core/curriculum"
	"github.com/irsalhamdi/expert-class/core/dashboard"
	documentation "github.com/irsalhamdi/expert-class/core/documentation"
	"github.com/irsalhamdi/expert-class/core/expert"
	"github.com/irsalhamdi/expert-class/core/file"
	"github.com/irsalhamdi/expert-class/core/issue"
	"github.com/irsalhamdi/expert-class/core/payment"
	"github.com/irsalhamdi/expert-class/core/schedule"
	"github.com/irsalhamdi/expert-class/core/user"
	"github.com/irsalhamdi/expert-class/rate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	DB         *sqlx.DB
	Verifier   auth.Verifier
	Payments   *payment.Service
	Stripe     *payment.Stripe
	Notify     *booking.Notifier
	Files      *file.Storage
	Limiter    *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	db := cfg.DB
	authen := auth.Authenticate(db, cfg.Verifier)
	optional := auth.Optional(db, cfg.Verifier)
	adminOnly := auth.Require(claims.RoleAdmin)
	expertOnly := auth.Require(claims.RoleExpert)

	var limit web.Middleware
	if cfg.Limiter != nil {
		limit = middleware.RateLimit(cfg.Limiter)
	}

	a.Handle(http.MethodGet, "/health", handleHealth(db, cfg.Log))
	a.Handle(http.MethodGet, "/routes/check", auth.HandleRouteCheck(), optional)

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(db), authen)
	a.Handle(http.MethodPut, "/users/current", user.HandleUpdateCurrent(db), authen)
	a.Handle(http.MethodGet, "/users/current/home", user.HandleHome(), authen)
	a.Handle(http.MethodGet, "/users", user.HandleList(db), authen, adminOnly)
	a.Handle(http.MethodPut, "/users/{id}/role", user.HandleUpdateRole(db), authen, adminOnly)

	a.Handle(http.MethodGet, "/experts/mine", expert.HandleShowMine(db), authen)
	a.Handle(http.MethodGet, "/experts/{ref}", expert.HandleShow(db))
	a.Handle(http.MethodGet, "/experts", expert.HandleList(db), optional)
	a.Handle(http.MethodPost, "/experts", expert.HandleCreate(db), authen)
	a.Handle(http.MethodPut, "/experts/{id}", expert.HandleUpdate(db), authen)
	a.Handle(http.MethodPut, "/experts/{id}/status", expert.HandleUpdateStatus(db), authen, adminOnly)
	a.Handle(http.MethodDelete, "/experts/{id}", expert.HandleDelete(db), authen, adminOnly)

	a.Handle(http.MethodGet, "/categories", category.HandleList(db))
	a.Handle(http.MethodGet, "/categories/{id}", category.HandleShow(db))
	a.Handle(http.MethodPost, "/categories", category.HandleCreate(db), authen, adminOnly)
	a.Handle(http.MethodPut, "/categories/{id}", category.HandleUpdate(db), authen, adminOnly)
	a.Handle(http.MethodDelete, "/categories/{id}", category.HandleDelete(db), authen, adminOnly)

	a.Handle(http.MethodGet, "/classes/mine", class.HandleListMine(db), authen, expertOnly)
	a.Handle(http.MethodGet, "/classes", class.HandleList(db), optional)
	a.Handle(http.MethodGet, "/classes/{id}", class.HandleShow(db), optional)
	a.Handle(http.MethodPost, "/classes", class.HandleCreate(db), authen, expertOnly)
	a.Handle(http.MethodPut, "/classes/{id}", class.HandleUpdate(db), authen, expertOnly)
	a.Handle(http.MethodPut, "/classes/{id}/status", class.HandleUpdateStatus(db), authen, expertOnly)
	a.Handle(http.MethodDelete, "/classes/{id}", class.HandleDelete(db), authen, expertOnly)

	a.Handle(http.MethodGet, "/classes/{id}/schedules", schedule.HandleListByClass(db), optional)
	a.Handle(http.MethodPost, "/classes/{id}/schedules", schedule.HandleCreate(db), authen, expertOnly)
	a.Handle(http.MethodGet, "/schedules/{id}", schedule.HandleShow(db), optional)
	a.Handle(http.MethodPut, "/schedules/{id}", schedule.HandleUpdate(db), authen, expertOnly)
	a.Handle(http.MethodDelete, "/schedules/{id}", schedule.HandleDelete(db), authen, expertOnly)

	a.Handle(http.MethodGet, "/classes/{id}/curriculum", curriculum.HandleShow(db, curriculum.KindCurriculum), optional)
	a.Handle(http.MethodPut, "/classes/{id}/curriculum", curriculum.HandleSave(db, curriculum.KindCurriculum), authen, expertOnly)
	a.Handle(http.MethodGet, "/classes/{id}/journey", curriculum.HandleShow(db, curriculum.KindJourney), optional)
	a.Handle(http.MethodPut, "/classes/{id}/journey", curriculum.HandleSave(db, curriculum.KindJourney), authen, expertOnly)

	for path, kind := range map[string]string{"benefits": benefit.KindBenefit, "perks": benefit.KindPerk} {
		h := benefit.Handlers{DB: db, Kind: kind}
		a.Handle(http.MethodGet, "/classes/{id}/"+path, h.List(), optional)
		a.Handle(http.MethodPost, "/classes/{id}/"+path, h.Create(), authen, expertOnly)
		a.Handle(http.MethodPut, "/"+path+"/{id}", h.Update(), authen, expertOnly)
		a.Handle(http.MethodDelete, "/"+path+"/{id}", h.Delete(), authen, expertOnly)
	}

	a.Handle(http.MethodGet, "/classes/{id}/documentation", documentation.HandleList(db), optional)
	a.Handle(http.MethodPost, "/classes/{id}/documentation", documentation.HandleCreate(db), authen, expertOnly)
	a.Handle(http.MethodGet, "/documentation/{id}", documentation.HandleShow(db), optional)
	a.Handle(http.MethodPut, "/documentation/{id}", documentation.HandleUpdate(db), authen, expertOnly)
	a.Handle(http.MethodDelete, "/documentation/{id}", documentation.HandleDelete(db), authen, expertOnly)

	a.Handle(http.MethodGet, "/consultants", consultant.HandleList(db), optional)
	a.Handle(http.MethodGet, "/consultants/{id}", consultant.HandleShow(db), optional)
	a.Handle(http.MethodPost, "/consultants", consultant.HandleCreate(db), authen, adminOnly)
	a.Handle(http.MethodPut, "/consultants/{id}", consultant.HandleUpdate(db), authen, adminOnly)
	a.Handle(http.MethodDelete, "/consultants/{id}", consultant.HandleDelete(db), authen, adminOnly)

	a.Handle(http.MethodPost, "/bookings", booking.HandleCreate(db), authen)
	a.Handle(http.MethodGet, "/bookings/mine", booking.HandleListMine(db), authen)
	a.Handle(http.MethodGet, "/bookings/expert", booking.HandleListExpert(db), authen, expertOnly)
	a.Handle(http.MethodGet, "/bookings", booking.HandleList(db), authen, adminOnly)
	a.Handle(http.MethodGet, "/bookings/{id}", booking.HandleShow(db), authen)
	a.Handle(http.MethodPost, "/bookings/{id}/cancel", booking.HandleCancel(db), authen)
	a.Handle(http.MethodPut, "/bookings/{id}/status", booking.HandleUpdateStatus(db, cfg.Log, cfg.Notify), authen, adminOnly)
	a.Handle(http.MethodGet, "/bookings/{id}/payments", payment.HandleListByBooking(cfg.Payments), authen)

	a.Handle(http.MethodGet, "/payments/methods", payment.HandleMethods(cfg.Payments), optional, limit)
	a.Handle(http.MethodPost, "/payments", payment.HandleCheckout(cfg.Payments), authen)
	a.Handle(http.MethodPost, "/payments/duitku/callback", payment.HandleDuitkuCallback(cfg.Payments))
	a.Handle(http.MethodPost, "/payments/stripe", payment.HandleStripeCheckout(cfg.Payments, cfg.Stripe), authen)
	a.Handle(http.MethodPost, "/payments/stripe/webhook", payment.HandleStripeWebhook(cfg.Payments, cfg.Stripe))
	a.Handle(http.MethodGet, "/payments", payment.HandleList(cfg.Payments), authen, adminOnly)
	a.Handle(http.MethodGet, "/payments/{id}", payment.HandleShow(cfg.Payments), authen)
	a.Handle(http.MethodPost, "/payments/{id}/sync", payment.HandleSync(cfg.Payments), authen)
	a.Handle(http.MethodPut, "/payments/{id}/status", payment.HandleUpdateStatus(cfg.Payments), authen, adminOnly)

	a.Handle(http.MethodGet, "/dashboard/admin", dashboard.HandleAdmin(db), authen, adminOnly)
	a.Handle(http.MethodGet, "/dashboard/expert", dashboard.HandleExpert(db), authen, expertOnly)
	a.Handle(http.MethodGet, "/dashboard/student", dashboard.HandleStudent(db), authen)
	a.Handle(http.MethodGet, "/dashboard/revenue", dashboard.HandleRevenue(db), authen, expertOnly)

	a.Handle(http.MethodPost, "/issues", issue.HandleCreate(db), authen)
	a.Handle(http.MethodGet, "/issues/mine", issue.HandleListMine(db), authen)
	a.Handle(http.MethodGet, "/issues", issue.HandleList(db), authen, adminOnly)
	a.Handle(http.MethodGet, "/issues/{id}", issue.HandleShow(db), authen)
	a.Handle(http.MethodPost, "/issues/{id}/replies", issue.HandleReply(db), authen)
	a.Handle(http.MethodPut, "/issues/{id}/status", issue.HandleUpdateStatus(db), authen, adminOnly)

	a.Handle(http.MethodPost, "/files/upload-url", file.HandleUploadURL(cfg.Files), authen)
	a.Handle(http.MethodPost, "/files/upload/{token}", file.HandleUpload(cfg.Files))
	a.Handle(http.MethodGet, "/files/{id}/url", file.HandleURL(cfg.Files))
	a.Handle(http.MethodGet, "/files/{id}", file.HandleServe(cfg.Files))

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
