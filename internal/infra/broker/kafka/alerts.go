package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"stayrates/internal/domain/pricing"
)

// AlertPublisher pushes configuration warnings to Kafka so pricing operators
// can fix the offending rows. Delivery failures are logged and swallowed: a
// lost warning must never fail a quote.
type AlertPublisher struct {
	Producer *Producer
	Topic    string
	Logger   *slog.Logger
}

func (p *AlertPublisher) Warn(ctx context.Context, w pricing.ConfigWarning) {
	payload, err := json.Marshal(w)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Error("config warning encode failed", "error", err)
		}
		return
	}
	headers := map[string]string{"kind": string(w.Kind)}
	if err := p.Producer.Publish(ctx, p.Topic, w.PropertyID, payload, headers); err != nil {
		if p.Logger != nil {
			p.Logger.Error("config warning publish failed", "topic", p.Topic, "error", err)
		}
	}
}

var _ pricing.WarningSink = (*AlertPublisher)(nil)
