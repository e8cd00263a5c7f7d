package services

import (
	"github.com/hashicorp/go-hclog"
)

// Routing keys of the catalog events published after a commit.
const (
	EventProductCreated   = "product.created"
	EventProductUpdated   = "product.updated"
	EventProductDeleted   = "product.deleted"
	EventProductRestocked = "product.restocked"
	EventProductsImported = "products.imported"
)

// EventPublisher delivers catalog events to interested consumers.
type EventPublisher interface {
	Publish(routingKey string, payload interface{}) error
}

// publish sends an event on a best effort basis. The operation that produced
// it has already committed, so a failure is only logged.
func publish(events EventPublisher, logger hclog.Logger, routingKey string, payload interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(routingKey, payload); err != nil {
		logger.Warn("failed to publish event", "event", routingKey, "error", err)
	}
}
