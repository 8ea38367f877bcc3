package workflow

// Level grades an operator notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// EventKind distinguishes state changes from notices.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventNotice
)

// Event is delivered to the registered listener outside the workflow lock.
type Event struct {
	Kind    EventKind
	State   State
	Level   Level
	Message string
}

func stateEvent(state State) Event {
	return Event{Kind: EventStateChanged, State: state}
}

func noticeEvent(level Level, message string) Event {
	return Event{Kind: EventNotice, Level: level, Message: message}
}

// SetListener registers fn for every subsequent event. Passing nil removes it.
func (w *Workflow) SetListener(fn func(Event)) {
	w.emitMu.Lock()
	w.listener = fn
	w.emitMu.Unlock()
}

func (w *Workflow) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	if w.listener == nil {
		return
	}
	for _, evt := range events {
		w.listener(evt)
	}
}
