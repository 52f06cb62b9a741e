package reconcile

// Event is the structured message forwarded to the producer when a bound
// handler fires.
type Event struct {
	Context any `json:"context"`
	Value   any `json:"value"`
}

// Send forwards an Event to the producer.
type Send func(Event)

// Handler is the derived prop for an event attribute. It records the
// attribute's context payload and flags and the tree's shared send function.
type Handler struct {
	Context         any
	PreventDefault  bool
	StopPropagation bool

	send Send
}

// NewHandler binds context to send.
func NewHandler(context any, preventDefault, stopPropagation bool, send Send) *Handler {
	return &Handler{
		Context:         context,
		PreventDefault:  preventDefault,
		StopPropagation: stopPropagation,
		send:            send,
	}
}

// Invoke dispatches value, the runtime event supplied by the host.
func (h *Handler) Invoke(value any) {
	Dispatch(h, value)
}

// Dispatch applies h's default-suppression, then its propagation-stop, then
// sends {h.Context, value}. The flags apply only when value implements the
// corresponding method. Panics from the send function propagate.
func Dispatch(h *Handler, value any) {
	if h.PreventDefault {
		if p, ok := value.(interface{ PreventDefault() }); ok {
			p.PreventDefault()
		}
	}
	if h.StopPropagation {
		if s, ok := value.(interface{ StopPropagation() }); ok {
			s.StopPropagation()
		}
	}
	if h.send != nil {
		h.send(Event{Context: h.Context, Value: value})
	}
}
