package client

import "go.uber.org/zap"

// Notifier surfaces non-blocking messages to the user.
type Notifier interface {
	Success(msg string)
	Warn(msg string)
}

// LogNotifier writes notices to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Success(msg string) { n.Logger.Info(msg) }

func (n LogNotifier) Warn(msg string) { n.Logger.Warn(msg) }

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Warn(string)    {}
