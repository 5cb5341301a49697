package consumers

import (
	"context"
	"log/slog"

	"boxoffice/internal/cache"
	"boxoffice/internal/config"
	"boxoffice/internal/database"
	"boxoffice/internal/logger"
	"boxoffice/internal/messaging"
	"boxoffice/internal/repository"
)

// ConsumerService drains the NATS subjects the API publishes to. It keeps
// the read-path cache coherent and escalates reconciliation failures.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	var cacheClient *cache.Client
	if cfg.CacheEnabled {
		cacheClient, err = cache.NewClient(cfg.Redis)
		if err != nil {
			logger.Get().Warn("Cache unavailable, invalidation handlers disabled", "error", err)
			cacheClient = nil
		}
	}

	store := repository.NewStore(db)
	handlers := NewHandlers(store, cacheClient)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	_, err := cs.nats.SubscribeQueue("ticket.booked", "consumers", cs.handlers.HandleTicketsBooked)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue("ticket.cancelled", "consumers", cs.handlers.HandleTicketCancelled)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue("payment.reconciled", "consumers", cs.handlers.HandlePaymentReconciled)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue("payment.reconciliation_failed", "consumers", cs.handlers.HandleReconciliationFailed)
	if err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
