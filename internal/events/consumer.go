package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartKitchenConsumer consumes order.paid events and prints a kitchen
// ticket for each one. The canteen counter runs on these logs; a proper
// display would hang its own consumer on the same queue.
func StartKitchenConsumer(ctx context.Context, conn *amqp.Connection, logger *log.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		OrderPaidQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(
		OrderPaidQueue,
		"kitchen", // consumer tag
		false,     // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Println("stopping order.paid consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Println("messages channel closed")
					return
				}

				if err := handleOrderPaid(msg.Body, logger); err != nil {
					logger.Printf("handle message error: %v", err)
					_ = msg.Nack(false, false) // drop for now
					continue
				}
				_ = msg.Ack(false)
			}
		}
	}()

	return nil
}

func handleOrderPaid(body []byte, logger *log.Logger) error {
	var ev OrderPaid
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	logger.Printf("kitchen ticket: order %s for user %s, %d items, %s %.2f",
		ev.OrderID, ev.UserID, len(ev.Items), ev.Currency, ev.Amount)
	return nil
}
