package session

// View is the screen the session is showing
type View int

const (
	// ViewUpload means no document is open
	ViewUpload View = iota
	// ViewReader means a document is open at a page
	ViewReader
)

func (v View) String() string {
	switch v {
	case ViewUpload:
		return "upload"
	case ViewReader:
		return "reader"
	default:
		return "unknown"
	}
}

// PendingDeletion is a history deletion waiting for confirmation
type PendingDeletion struct {
	ID   string
	Name string
}

// State is a snapshot of the session
type State struct {
	View            View
	DocumentName    string
	PageIndex       int
	PageCount       int
	PendingDeletion *PendingDeletion
}

// clampPage limits idx to the pages of a document with count pages. An
// empty document clamps to 0.
func clampPage(idx, count int) int {
	if idx > count-1 {
		idx = count - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
