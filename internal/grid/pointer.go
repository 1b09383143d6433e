package grid

// PointerHandler receives pointer events captured outside its own bounds.
type PointerHandler interface {
	HandlePointer(ev PointerEvent)
}

// PointerCapture registers a handler at a scope broader than one grid for the duration of a drag.
// The returned release function deregisters it.
type PointerCapture interface {
	Capture(h PointerHandler) (release func())
}

// PointerScope is a window-level dispatcher holding at most one captured handler.
type PointerScope struct {
	handler PointerHandler
	seq     int
}

// Capture replaces any current capture with h.
func (p *PointerScope) Capture(h PointerHandler) func() {
	p.seq++
	p.handler = h
	token := p.seq
	return func() {
		if p.seq == token {
			p.handler = nil
		}
	}
}

// Active reports whether a handler is captured.
func (p *PointerScope) Active() bool {
	return p.handler != nil
}

// Dispatch forwards ev to the captured handler and reports whether one received it.
func (p *PointerScope) Dispatch(ev PointerEvent) bool {
	if p.handler == nil {
		return false
	}
	h := p.handler
	h.HandlePointer(ev)
	return true
}
