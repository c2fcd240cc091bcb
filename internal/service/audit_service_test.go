package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/todo-auth/internal/domain"
	"github.com/spec-kit/todo-auth/internal/events"
)

func TestAuditService_LogsEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, zap.New(core)).RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventUserLoggedIn, "u1", nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventRoleChanged, "u2",
		events.RoleChangedPayload{OldRole: domain.RoleUser, NewRole: domain.RoleAdmin, ChangedBy: "u1"})))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "user_logged_in", entries[0].Message)
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
	assert.Equal(t, "ADMIN", entries[1].ContextMap()["new_role"])
	assert.Equal(t, "audit", entries[1].LoggerName)
}
