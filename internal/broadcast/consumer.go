package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const panelLogQueue = "panel.display-log"

// StartPanelConsumer connects to RabbitMQ, binds a durable queue to
// every panel topic and appends each call announcement to
// logs/panel.log.  It serves as the reference panel subscriber and as
// an audit trail of what the displays were told.  The function runs a
// reconnect loop with backoff and keeps running across broker
// restarts; processing errors reject the offending message without
// requeueing so the loop never spins on a bad payload.
func StartPanelConsumer(url string) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("panel-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumePanelLoop(conn); err != nil {
			log.Printf("panel-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumePanelLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("panel-consumer: set QoS failed: %v", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(panelLogQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(panelLogQueue, "panel.*", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.Consume(panelLogQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handlePanelMessage(d.Body); err != nil {
			log.Printf("panel-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handlePanelMessage(body []byte) error {
	var u PanelUpdate
	if err := json.Unmarshal(body, &u); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "panel.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var line string
	if u.Current != nil {
		line = fmt.Sprintf("[%s] queue=%q ticket=%d counter=%q sound=%t recent=%d\n",
			u.Current.CalledAt, u.QueueName, u.Current.TicketID, u.Current.CounterLabel, u.Sound, len(u.Recent))
	} else {
		line = fmt.Sprintf("[%s] queue=%q no active call\n",
			time.Now().UTC().Format(time.RFC3339), u.QueueName)
	}
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
