// Package push publishes completed simulation results to NATS JetStream so
// downstream consumers (report tooling, dashboards) can pick them up. The
// engine itself never depends on it; a nil publisher is a no-op.
package push

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"quantsim/internal/infrastructure"
	"quantsim/internal/model"
)

type ResultPublisher struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

func NewResultPublisher(js nats.JetStreamContext, logger *zap.Logger) *ResultPublisher {
	return &ResultPublisher{js: js, logger: logger}
}

func (p *ResultPublisher) PublishBacktest(res *model.BacktestResult) {
	if p == nil {
		return
	}
	p.publish("backtest", fmt.Sprintf("backtest.result.%s", res.Symbol), res)
}

func (p *ResultPublisher) PublishOptimization(symbol string, res *model.OptimizationResult) {
	if p == nil {
		return
	}
	p.publish("optimize", fmt.Sprintf("optimize.result.%s", symbol), res)
}

func (p *ResultPublisher) PublishWalkForward(symbol string, res *model.WalkForwardResult) {
	if p == nil {
		return
	}
	p.publish("walkforward", fmt.Sprintf("walkforward.result.%s", symbol), res)
}

func (p *ResultPublisher) publish(kind, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal result", zap.String("subject", subject), zap.Error(err))
		return
	}
	if _, err := p.js.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish result", zap.String("subject", subject), zap.Error(err))
		return
	}
	infrastructure.ResultsPublished.WithLabelValues(kind).Inc()
}
