package domain

// RejectionReason explains why a question block was dropped.
type RejectionReason string

const (
	RejectTooFewAnswers   RejectionReason = "too_few_answers"
	RejectTooManyAnswers  RejectionReason = "too_many_answers"
	RejectNoCorrectAnswer RejectionReason = "no_correct_answer"
)

// RunTrigger identifies what started an ingestion run.
type RunTrigger string

const (
	TriggerCLI    RunTrigger = "cli"
	TriggerUpload RunTrigger = "upload"
	TriggerAPI    RunTrigger = "api"
)

// RunStatus represents the final state of an ingestion run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// AllowedExtensions lists the file extensions accepted as question banks.
var AllowedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}
