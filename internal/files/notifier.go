package files

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/intake/pkg/bus"
)

// Notification is the classification request published after a transfer
// commits. The field names are the classifier's wire contract.
type Notification struct {
	FileID          string `json:"fileId"`
	FileName        string `json:"fileName"`
	StorageLocation string `json:"fileLocation"`
}

// Notifier asks the classifier to scan a stored file.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type busNotifier struct {
	publisher bus.Publisher
	topic     string
}

// NewBusNotifier creates a Notifier that publishes JSON requests to topic,
// keyed by file id so requests for one file stay ordered.
func NewBusNotifier(publisher bus.Publisher, topic string) Notifier {
	return &busNotifier{
		publisher: publisher,
		topic:     topic,
	}
}

func (n *busNotifier) Notify(ctx context.Context, req Notification) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encode request: %w", ErrNotify, err)
	}

	if err := n.publisher.Publish(ctx, n.topic, req.FileID, payload); err != nil {
		return fmt.Errorf("%w: %w", ErrNotify, err)
	}
	return nil
}
