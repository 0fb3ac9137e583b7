package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"medadhere/internal/metrics"
	"medadhere/internal/models"
	"medadhere/internal/monitor"

	"go.uber.org/zap"
)

// Publisher 消息发布接口（*Client 实现）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// VitalsMessage 发布到 MQTT 的样本消息
type VitalsMessage struct {
	DeviceID  string               `json:"device_id"`
	OwnerID   string               `json:"owner_id,omitempty"`
	Sample    models.VitalsSample  `json:"sample"`
	Statuses  models.VitalStatuses `json:"statuses"`
	Alerts    []string             `json:"alerts"`
	Defaulted models.Defaulted     `json:"defaulted"`
	SentAt    time.Time            `json:"sent_at"`
}

// VitalsPublisher 监控订阅者：每个样本发布到 <topic>，有告警时另发 <topic>/alerts
type VitalsPublisher struct {
	pub    Publisher
	topic  string
	qos    byte
	logger *zap.Logger
	now    func() time.Time
}

func NewVitalsPublisher(pub Publisher, topic string, qos byte, logger *zap.Logger) *VitalsPublisher {
	return &VitalsPublisher{pub: pub, topic: topic, qos: qos, logger: logger, now: time.Now}
}

var _ monitor.Subscriber = (*VitalsPublisher)(nil)

func (p *VitalsPublisher) HandleSample(_ context.Context, ev monitor.Event) {
	msg := VitalsMessage{
		DeviceID:  ev.DeviceID,
		OwnerID:   ev.OwnerID,
		Sample:    ev.Sample,
		Statuses:  ev.Statuses,
		Alerts:    ev.Alerts,
		Defaulted: ev.Defaulted,
		SentAt:    p.now().UTC(),
	}
	if msg.Alerts == nil {
		msg.Alerts = []string{}
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("Failed to marshal vitals message", zap.Error(err))
		return
	}

	// 最新样本 retained，新订阅者立即拿到当前值
	if err := p.pub.Publish(p.topic, p.qos, true, payload); err != nil {
		metrics.SinkPublishes.WithLabelValues("mqtt", "error").Inc()
		p.logger.Warn("Failed to publish vitals", zap.String("topic", p.topic), zap.Error(err))
		return
	}
	metrics.SinkPublishes.WithLabelValues("mqtt", "ok").Inc()

	if len(msg.Alerts) == 0 {
		return
	}
	alertTopic := p.topic + "/alerts"
	if err := p.pub.Publish(alertTopic, p.qos, false, payload); err != nil {
		metrics.SinkPublishes.WithLabelValues("mqtt", "error").Inc()
		p.logger.Warn("Failed to publish vitals alerts", zap.String("topic", alertTopic), zap.Error(err))
	}
}
