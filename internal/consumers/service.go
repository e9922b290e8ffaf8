package consumers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nats-io/stan.go"

	"setrag/internal/config"
	"setrag/internal/messaging"
	"setrag/internal/models"
	"setrag/internal/search"
)

const queueGroup = "consumers"

type ConsumerService struct {
	nats     *messaging.NATSClient
	search   *search.ElasticsearchClient
	handlers *Handlers
	subs     []stan.Subscription
}

func NewConsumerService(cfg *config.Config, esCfg config.ElasticsearchConfig) (*ConsumerService, error) {
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}
	if !natsClient.Enabled() {
		return nil, errors.New("consumers need NATS_ENABLED=true")
	}

	es, err := search.NewElasticsearchClient(esCfg)
	if err != nil {
		natsClient.Close()
		return nil, err
	}

	return &ConsumerService{
		nats:     natsClient,
		search:   es,
		handlers: NewHandlers(es),
	}, nil
}

// Index is the bookings index the consumers write to
func (cs *ConsumerService) Index() *search.ElasticsearchClient {
	return cs.search
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	subscriptions := map[string]stan.MsgHandler{
		models.EventBookingConfirmed:              cs.handlers.HandleBookingConfirmed,
		models.EventBookingReconciliationRequired: cs.handlers.HandleReconciliationRequired,
		models.EventSeatHeld:                      cs.handlers.HandleSeatEvent,
		models.EventSeatSold:                      cs.handlers.HandleSeatEvent,
		models.EventSeatReleased:                  cs.handlers.HandleSeatEvent,
		models.EventTripSeeded:                    cs.handlers.HandleTripSeeded,
	}

	for subject, handler := range subscriptions {
		sub, err := cs.nats.SubscribeQueue(subject, queueGroup, handler)
		if err != nil {
			return err
		}
		cs.subs = append(cs.subs, sub)
	}

	slog.Info("All consumers started successfully", "subscriptions", len(cs.subs))
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	// Close keeps the durable queue position; Unsubscribe would drop it.
	for _, sub := range cs.subs {
		if err := sub.Close(); err != nil {
			slog.Warn("Error closing subscription", "error", err)
		}
	}

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
			return err
		}
	}
	return nil
}
