package syncengine

// Event is the interface implemented by all sync engine events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events. Emit may be called
// from several goroutines at once.
type EventEmitter interface {
	Emit(event Event)
}

// RunStarted is emitted once a run has validated its pairs.
type RunStarted struct {
	Pairs []string
}

func (RunStarted) isEvent() {}

// PairScanned is emitted when a pair's source has been listed.
type PairScanned struct {
	Pair  string
	Total int
}

func (PairScanned) isEvent() {}

// PairProgress is emitted after each entry of a pair is resolved.
type PairProgress struct {
	Pair  string
	Stats SyncStats
}

func (PairProgress) isEvent() {}

// Progress carries the combined stats across all pairs.
type Progress struct {
	Stats SyncStats
}

func (Progress) isEvent() {}

// PairFinished is emitted when a pair stops, successfully or not.
type PairFinished struct {
	Pair   string
	Copied int
	Err    error
}

func (PairFinished) isEvent() {}

// RunFinished is emitted at the end of every run that got past validation.
type RunFinished struct {
	Copied int
	Err    error
}

func (RunFinished) isEvent() {}
