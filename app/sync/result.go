// Package sync sequences the fetch, clean, compile and tracking stages into
// the create and update workflows.
package sync

// Status is the closed set of run outcomes. Expected domain conditions are
// statuses, not errors, so callers can render them without a generic error
// path.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNoPosts     Status = "no_posts"
	StatusNoNewPosts  Status = "no_new_posts"
	StatusMissingEPUB Status = "missing_epub"
	StatusError       Status = "error"
)

// Result is the only externally observable outcome of a run.
type Result struct {
	Status     Status
	Message    string
	OutputPath string
	Filename   string
	MimeType   string
	Title      string
	Author     string
	PostCount  int
}

func errorResult(message string) Result {
	return Result{Status: StatusError, Message: message}
}
