package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/todo-auth/internal/events"
)

// AuditService writes an audit log line for every auth event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to every event type.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("user_id", event.UserID),
		zap.Time("at", event.Timestamp),
	}
	switch p := event.Payload.(type) {
	case events.RoleChangedPayload:
		fields = append(fields,
			zap.String("old_role", string(p.OldRole)),
			zap.String("new_role", string(p.NewRole)),
			zap.String("changed_by", p.ChangedBy))
	case events.SessionsRevokedPayload:
		fields = append(fields, zap.String("reason", p.Reason))
	case events.ProfileUpdatedPayload:
		fields = append(fields, zap.Strings("fields", p.Fields))
	case nil:
	default:
		fields = append(fields, zap.Any("payload", p))
	}
	a.logger.Info(string(event.Type), fields...)
	return nil
}
