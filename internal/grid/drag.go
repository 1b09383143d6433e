package grid

// DragMode identifies the state of the column drag machine.
type DragMode int

// DragIdle and related constants define the drag machine states.
const (
	DragIdle DragMode = iota
	DragResizing
	DragReordering
)

// String returns the mode name.
func (m DragMode) String() string {
	switch m {
	case DragResizing:
		return "resizing"
	case DragReordering:
		return "dragging"
	default:
		return "idle"
	}
}

// DragState is the ephemeral state of an in-flight column drag. It is never persisted.
type DragState struct {
	Mode       DragMode
	Key        string
	StartX     int
	StartWidth int
}

// Active reports whether a drag is in progress.
func (s DragState) Active() bool {
	return s.Mode != DragIdle
}

// PointerEventKind identifies an input event driving the drag machine.
type PointerEventKind int

// PointerResizeStart and related constants define the pointer events.
const (
	PointerResizeStart PointerEventKind = iota
	PointerMove
	PointerUp
	PointerDragStart
	PointerDrop
	PointerDragEnd
)

// PointerEvent is one surface-independent input event.
// Key names the column under the pointer (the handle's column for resize start, the drop target for
// drop); Width carries the column's current width on resize start.
type PointerEvent struct {
	Kind  PointerEventKind
	Key   string
	X     int
	Width int
}

// EffectKind identifies a column-model mutation requested by a transition.
type EffectKind int

// EffectNone and related constants define transition effects.
const (
	EffectNone EffectKind = iota
	EffectSetWidth
	EffectReorder
)

// Effect is the column-model mutation produced by one transition.
type Effect struct {
	Kind   EffectKind
	Key    string
	Target string
	Width  int
}

// Step applies one pointer event to a drag state. It is a pure function: callers apply the
// returned effect to their column model.
func Step(s DragState, ev PointerEvent, minWidth int) (DragState, Effect) {
	switch s.Mode {
	case DragIdle:
		switch ev.Kind {
		case PointerResizeStart:
			if ev.Key == "" {
				return s, Effect{}
			}
			return DragState{Mode: DragResizing, Key: ev.Key, StartX: ev.X, StartWidth: ev.Width}, Effect{}
		case PointerDragStart:
			if ev.Key == "" {
				return s, Effect{}
			}
			return DragState{Mode: DragReordering, Key: ev.Key, StartX: ev.X}, Effect{}
		}
		return s, Effect{}

	case DragResizing:
		switch ev.Kind {
		case PointerMove:
			width := max(minWidth, s.StartWidth+(ev.X-s.StartX))
			return s, Effect{Kind: EffectSetWidth, Key: s.Key, Width: width}
		case PointerUp, PointerDragEnd:
			return DragState{}, Effect{}
		}
		return s, Effect{}

	case DragReordering:
		switch ev.Kind {
		case PointerDrop:
			if ev.Key == "" || ev.Key == s.Key {
				return DragState{}, Effect{}
			}
			return DragState{}, Effect{Kind: EffectReorder, Key: s.Key, Target: ev.Key}
		case PointerDragEnd, PointerUp:
			return DragState{}, Effect{}
		}
		return s, Effect{}
	}
	return DragState{}, Effect{}
}
