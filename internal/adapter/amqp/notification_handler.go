package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/cafestock/internal/adapter/logger"
	"github.com/YelzhanWeb/cafestock/internal/interfaces"
)

type NotificationHandler struct {
	logger logger.Logger
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
	}
}

func (h *NotificationHandler) HandleStatusUpdate(ctx context.Context, body []byte) error {
	var msg interfaces.StatusChangedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse status update", "", nil, err)
		return err
	}

	h.logger.Debug("status_update_received", fmt.Sprintf("Received status update for order %d", msg.OrderID),
		msg.CorrelationID, map[string]interface{}{
			"order_id":   msg.OrderID,
			"new_status": msg.NewStatus,
			"manual":     msg.Manual,
		})

	// Print to console
	fmt.Printf("Order %d: status changed from '%s' to '%s' by %s\n",
		msg.OrderID, msg.OldStatus, msg.NewStatus, msg.ChangedBy)

	return nil
}
