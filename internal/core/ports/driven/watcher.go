package driven

// FileEventOp is the kind of a raw filesystem event.
type FileEventOp uint8

// Raw event kinds.
const (
	OpCreate FileEventOp = iota + 1
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

func (op FileEventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	case OpChmod:
		return "chmod"
	default:
		return "unknown"
	}
}

// FileEvent is one raw, undebounced filesystem notification.
type FileEvent struct {
	Path string
	Op   FileEventOp
}

// EventSource opens raw event subscriptions for a directory.
type EventSource interface {
	// Watch subscribes non-recursively to path. Failure to open is returned
	// immediately.
	Watch(path string) (EventStream, error)
}

// EventStream delivers raw events until closed.
type EventStream interface {
	// Events returns the event channel. It is closed after Close.
	Events() <-chan FileEvent

	// Errors returns asynchronous watch errors.
	Errors() <-chan error

	// Close stops the subscription.
	Close() error
}

// Trasher moves a file to the platform's recoverable-delete facility.
type Trasher interface {
	// Trash soft-deletes the file at path and returns its new location.
	Trash(path string) (string, error)
}
