package feed

import "go.uber.org/zap"

// ZapNotifier surfaces notifications as log entries.
type ZapNotifier struct {
	Logger *zap.Logger
}

func (n ZapNotifier) Success(message string) {
	n.Logger.Info(message, zap.String("kind", "notification"))
}

func (n ZapNotifier) Error(message string) {
	n.Logger.Error(message, zap.String("kind", "notification"))
}
