package locator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudevents/sdk-go/v2/event"
)

// MessagePublishedData is the Pub/Sub payload of a CloudEvent.
type MessagePublishedData struct {
	Message PubSubMessage `json:"message"`
}

type PubSubMessage struct {
	Data       []byte            `json:"data"`
	Attributes map[string]string `json:"attributes"`
	MessageID  string            `json:"messageId"`
}

var errNotConfigured = errors.New("locator is not configured")

// reloadResources re-reads the dataset after it has been updated.
func reloadResources(ctx context.Context, e event.Event) error {
	a := currentApp()
	if a == nil {
		return errNotConfigured
	}

	var msg MessagePublishedData
	if err := e.DataAs(&msg); err != nil {
		return fmt.Errorf("event.DataAs: %v", err)
	}

	processingID := msg.Message.Attributes["processingId"]
	if processingID == "" {
		processingID = msg.Message.MessageID
	}
	if processingID == "" {
		processingID = e.ID()
	}
	return a.reload(ctx, processingID)
}

func (a *App) reload(ctx context.Context, processingID string) error {
	idempotencyKey := fmt.Sprintf("reload-resources:%s:processed", processingID)

	first, err := a.store.Claim(ctx, idempotencyKey)
	if err != nil {
		log.Printf("Error checking idempotency key: %v", err)
	} else if !first {
		log.Printf("Reload %s already processed, skipping", processingID)
		return nil
	}

	if err := a.catalog.Reload(ctx); err != nil {
		log.Printf("Error reloading resources: %v", err)
		// Let a redelivery try again.
		if delErr := a.store.Delete(ctx, idempotencyKey); delErr != nil {
			log.Printf("Error clearing idempotency key: %v", delErr)
		}
		return err
	}

	idx, err := a.catalog.Current()
	if err != nil {
		return fmt.Errorf("reload %s: %w", processingID, err)
	}
	log.Printf("Reload %s done, %d resources indexed", processingID, idx.Len())
	return nil
}
