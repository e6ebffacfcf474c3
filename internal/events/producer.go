// Package events publishes order and bill lifecycle events to Kafka so
// kitchen displays and downstream systems can react without polling.
package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

const (
	TopicOrderCreated  = "order.created"
	TopicOrderUpdated  = "order.updated"
	TopicOrderDeleted  = "order.deleted"
	TopicBillFinalized = "bill.finalized"
)

type OrderEvent struct {
	OrderID   string    `json:"order_id"`
	BillID    string    `json:"bill_id"`
	TableID   string    `json:"table_id"`
	HotelID   string    `json:"hotel_id"`
	Status    string    `json:"status"`
	EventTime time.Time `json:"event_time"`
}

type BillEvent struct {
	BillID      string    `json:"bill_id"`
	TableID     string    `json:"table_id"`
	HotelID     string    `json:"hotel_id"`
	FinalAmount float64   `json:"final_amount"`
	EventTime   time.Time `json:"event_time"`
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{producer: producer, logger: logger}, nil
}

func (p *KafkaProducer) PublishOrderEvent(topic string, event OrderEvent) error {
	event.EventTime = time.Now()
	return p.publish(topic, event.OrderID, event)
}

func (p *KafkaProducer) PublishBillFinalized(event BillEvent) error {
	event.EventTime = time.Now()
	return p.publish(TopicBillFinalized, event.BillID, event)
}

func (p *KafkaProducer) publish(topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithField("topic", topic).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     topic,
		"partition": partition,
		"offset":    offset,
		"key":       key,
	}).Info("Event published to Kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
