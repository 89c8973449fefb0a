package api

import (
	"log/slog"

	"github.com/campus-fest/event-checkin/events"
	"github.com/campus-fest/event-checkin/holders"
	"github.com/campus-fest/event-checkin/registration"
	"github.com/campus-fest/event-checkin/ticket"
)

type Environment int

const (
	LOCAL Environment = iota
	PROD
)

type DB interface {
	events.Repository
	registration.Repository
	holders.Repository
}

type API struct {
	db       DB
	logger   *slog.Logger
	env      Environment
	guard    *Guard
	issuer   *ticket.Issuer
	redeemer *ticket.Service
	metrics  *metrics
}

func NewAPI(db DB, logger *slog.Logger, env Environment, guard *Guard, issuer *ticket.Issuer, redeemer *ticket.Service) *API {
	return &API{
		db:       db,
		logger:   logger,
		env:      env,
		guard:    guard,
		issuer:   issuer,
		redeemer: redeemer,
		metrics:  newMetrics(),
	}
}
