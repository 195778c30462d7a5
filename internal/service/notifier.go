package service

import (
	"context"

	"github.com/kargohub/cargo-backend/internal/model"
	"go.uber.org/zap"
)

// Notifier receives shipment lifecycle events. Real delivery (SMS/email) is
// out of scope; the log notifier stands in for it.
type Notifier interface {
	ShipmentCreated(ctx context.Context, s *model.Shipment)
	StatusChanged(ctx context.Context, s *model.Shipment, prev, next model.ShipmentStatus)
}

type logNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) ShipmentCreated(_ context.Context, s *model.Shipment) {
	n.log.Info("shipment created",
		zap.String("tracking_number", s.TrackingNumber),
		zap.String("sender_phone", s.Sender.Phone),
		zap.String("receiver_phone", s.Receiver.Phone),
	)
}

func (n *logNotifier) StatusChanged(_ context.Context, s *model.Shipment, prev, next model.ShipmentStatus) {
	n.log.Info("shipment status changed",
		zap.String("tracking_number", s.TrackingNumber),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)
}
