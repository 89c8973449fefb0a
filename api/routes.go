package api

import (
	"net/http"

	"github.com/campus-fest/event-checkin/holders"
)

// Routes wires every endpoint and the shared middlewares into a handler.
func (a *API) Routes() http.Handler {
	r := http.NewServeMux()

	r.HandleFunc("POST /auth/signup", a.signup)
	r.HandleFunc("POST /auth/login", a.login)

	r.HandleFunc("GET /events", a.getEvents)
	r.HandleFunc("GET /events/{id}", a.getEvent)
	r.HandleFunc("POST /events", a.requireAuth(a.createEvent, holders.OPERATOR))
	r.HandleFunc("PUT /events/{id}", a.requireAuth(a.updateEvent, holders.OPERATOR))

	r.HandleFunc("POST /events/{id}/register", a.requireAuth(a.register))
	r.HandleFunc("GET /registrations/mine", a.requireAuth(a.myRegistrations))
	r.HandleFunc("GET /events/{id}/registrations", a.requireAuth(a.eventRegistrations, holders.OPERATOR))
	r.HandleFunc("GET /events/{id}/registrations/export", a.requireAuth(a.exportEventRegistrations, holders.OPERATOR))
	r.HandleFunc("PUT /registrations/{id}/status", a.requireAuth(a.reviewRegistration, holders.OPERATOR))

	r.HandleFunc("GET /registrations/{id}/ticket", a.requireAuth(a.getTicket))
	r.HandleFunc("POST /scan", a.requireAuth(a.scan, holders.OPERATOR))

	r.Handle("GET /metrics", a.metrics.handler())

	return useMiddlewares(r,
		a.metricsMiddleware(),
		a.loggingMiddleware(),
		a.corsMiddleware(),
	)
}
