package exports

import "time"

// ExportStatus tracks the lifecycle of one queued export.
type ExportStatus string

const (
	StatusPending    ExportStatus = "pending"
	StatusProcessing ExportStatus = "processing"
	StatusSuccess    ExportStatus = "success"
	StatusFailed     ExportStatus = "failed"
)

// ExportKind names what gets exported.
type ExportKind string

// KindOrders exports the order book to a workbook.
const KindOrders ExportKind = "orders"

// DataExport is one queued export job record. The operator polls Status
// until it settles on success or failed.
type DataExport struct {
	ID        int64        `json:"id"`
	Kind      ExportKind   `json:"kind"`
	Status    ExportStatus `json:"status"`
	FilePath  string       `json:"file_path,omitempty"`
	Error     string       `json:"error,omitempty"`
	ActorID   *int64       `json:"actor_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
