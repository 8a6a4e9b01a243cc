package store

// pageState tracks where a collection's pagination cursor is.
//
//	idle            -> loadingInitial  first read or refresh
//	loadingInitial  -> idle            success, more data may follow
//	loadingInitial  -> exhausted       first page was short
//	idle            -> loadingMore     LoadNextPage
//	loadingMore     -> idle            full page appended
//	loadingMore     -> exhausted       short page appended
//
// Refresh forces any state back to loadingInitial. LoadNextPage is a no-op
// unless the state is idle.
type pageState int

const (
	stateIdle pageState = iota
	stateLoadingInitial
	stateLoadingMore
	stateExhausted
)

func (st pageState) String() string {
	switch st {
	case stateIdle:
		return "idle"
	case stateLoadingInitial:
		return "loadingInitial"
	case stateLoadingMore:
		return "loadingMore"
	case stateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}
