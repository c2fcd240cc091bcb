package worker

import (
	"github.com/spec-kit/todo-auth/internal/service"
)

// StartAuditWorker registers audit handlers.
func StartAuditWorker(audit *service.AuditService) {
	if audit == nil {
		return
	}
	audit.RegisterHandlers()
}
