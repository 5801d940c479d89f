package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# CRM Backend

Offline-first CRM API for call-center agents.

## Auth

All /api/v1/* routes require a Bearer token except /api/v1/auth/register
and /api/v1/auth/login. Health endpoints are public.

- POST /api/v1/auth/register
- POST /api/v1/auth/login
- GET  /api/v1/auth/me

## Resources

- GET/POST /api/v1/calls, GET/PUT/DELETE /api/v1/calls/:id
- POST /api/v1/calls/:id/start, POST /api/v1/calls/:id/end
- GET/POST /api/v1/leads, GET/PUT/DELETE /api/v1/leads/:id
- POST /api/v1/leads/:id/claim, POST /api/v1/leads/:id/assign
- GET/POST /api/v1/reminders, GET/PUT/DELETE /api/v1/reminders/:id
- POST /api/v1/reminders/:id/complete, GET /api/v1/reminders/due

## Sync

- POST /api/v1/sync/push   {data_type, records[], sync_type?}
- GET  /api/v1/sync/pull?type=calls|leads|reminders|all&since=RFC3339
- POST /api/v1/sync/full   {last_sync}
- GET  /api/v1/sync/status?type=
- GET  /api/v1/sync/logs

Push returns one outcome per record ({id, status, error?}); the envelope is
200 even when individual records fail — inspect the outcome array.

## Misc

- GET /api/v1/agents (admin)
- GET /api/v1/notifications, POST /api/v1/notifications/:id/read,
  POST /api/v1/notifications/read-all
- GET/POST /api/v1/automation/rules, PUT/DELETE /api/v1/automation/rules/:id
- GET /api/v1/analytics/summary, /api/v1/analytics/calls-per-day,
  /api/v1/analytics/leads-by-status
- GET /ws?token=  (websocket sync channel)
`)
	})
}
