package model

import "time"

// Pseudo-actors used for entries written by the tier engine.
const (
	ActorAutoAssign = "System Auto-Assign"
	ActorAutoTier   = "System Auto-Tier"
)

type HistoryLog struct {
	ID        int64     `json:"id"`
	AdminName string    `json:"admin_name"`
	Action    string    `json:"action"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

type ArchiveStatus string

const (
	ArchivePending   ArchiveStatus = "pending"
	ArchiveUploading ArchiveStatus = "uploading"
	ArchiveCompleted ArchiveStatus = "completed"
	ArchiveFailed    ArchiveStatus = "failed"
)

type HistoryArchive struct {
	ID           int64         `json:"id"`
	Filename     string        `json:"filename"`
	S3Key        string        `json:"s3_key"`
	EntryCount   int           `json:"entry_count"`
	SizeBytes    int64         `json:"size_bytes"`
	Status       ArchiveStatus `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}
