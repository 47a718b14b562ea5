package models

// Stage names a step of one upload pipeline run.
type Stage string

const (
	StageValidate Stage = "validate"
	StageAcquire  Stage = "acquire"
	StageQuota    Stage = "quota"
	StageFetch    Stage = "fetch"
	StagePut      Stage = "put"
	StageCommit   Stage = "commit"
	StageCleanup  Stage = "cleanup"
	StageDone     Stage = "done"
)

// UploadJob is the in-memory state of one pipeline run. It is never persisted.
type UploadJob struct {
	ID          string
	OwnerID     string
	SourceURL   string
	LogicalName string
	FolderName  string
	StorageKey  string
	Stage       Stage
	LocalPath   string
}
