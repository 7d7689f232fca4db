package module

import "taskdata/internal/services/ingest/domain"

// Ports defines ingest module ports
type Ports struct {
	Worker domain.WorkerPort
	Inbox  domain.InboxPort
	Stats  domain.StatsPort
}
