package canvas

// EventKind names the engine notifications hosts can subscribe to.
type EventKind int

const (
	// EventStateCommitted fires after every commit, carrying the new
	// state. Persistence collaborators subscribe here.
	EventStateCommitted EventKind = iota
	// EventViewportChanged fires on pan and zoom.
	EventViewportChanged
	// EventFrameRequested fires at most once per pending frame, when a
	// mutation first marks the frame dirty. Hosts schedule a
	// RenderFrame call in response.
	EventFrameRequested
	// EventProximityChanged fires when the auto-connect candidate
	// appears, changes or clears.
	EventProximityChanged
)

// Event is the payload delivered to subscribers. Only the fields
// relevant to the kind are set.
type Event struct {
	Kind      EventKind
	State     State
	View      Viewport
	Candidate *ProximityCandidate
}

// Handler receives engine events.
type Handler func(Event)

// dispatcher is a minimal observer table keyed by event kind.
// Everything runs synchronously on the caller's goroutine, matching
// the engine's single-threaded model.
type dispatcher struct {
	handlers map[EventKind][]Handler
}

func (d *dispatcher) on(kind EventKind, h Handler) {
	if d.handlers == nil {
		d.handlers = make(map[EventKind][]Handler)
	}
	d.handlers[kind] = append(d.handlers[kind], h)
}

func (d *dispatcher) emit(ev Event) {
	for _, h := range d.handlers[ev.Kind] {
		h(ev)
	}
}

// Subscribe registers a handler for one event kind. Handlers run
// synchronously, in registration order, on the goroutine that caused
// the event.
func (e *Engine) Subscribe(kind EventKind, h Handler) {
	e.disp.on(kind, h)
}

// OnStateChange registers a persistence-style observer called with a
// copy of the state after every commit.
func (e *Engine) OnStateChange(fn func(State)) {
	e.disp.on(EventStateCommitted, func(ev Event) {
		fn(ev.State)
	})
}
