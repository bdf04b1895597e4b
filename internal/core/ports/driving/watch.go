package driving

import "github.com/custodia-labs/sorta/internal/core/domain"

// WatchService runs the single directory watch session.
type WatchService interface {
	// Start begins watching path. sink receives one observation per newly
	// arrived, stabilised file. Only one session may be active.
	Start(path string, sink func(domain.FileObservation)) error

	// Stop ends the session and waits for its worker to exit.
	Stop()

	// Status reports the session state.
	Status() domain.WatchStatus
}
