package form

import "context"

// DragEventType is the kind of a drop-zone event.
type DragEventType int

const (
	DragEnter DragEventType = iota
	DragOver
	DragLeave
	Drop
)

// DragEvent is a drag-and-drop event delivered to the drop zone.
type DragEvent struct {
	Type  DragEventType
	Files []File

	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault suppresses the default browser action.
func (e *DragEvent) PreventDefault() { e.defaultPrevented = true }

// StopPropagation keeps the event from reaching enclosing handlers.
func (e *DragEvent) StopPropagation() { e.propagationStopped = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *DragEvent) DefaultPrevented() bool { return e.defaultPrevented }

// PropagationStopped reports whether StopPropagation was called.
func (e *DragEvent) PropagationStopped() bool { return e.propagationStopped }

// HandleDrag applies a drop-zone event. Every event has its default action
// prevented and its propagation stopped. A drop attaches the first file only
// when its declared type is image/*; other drops are ignored.
func (s *Session) HandleDrag(ctx context.Context, e *DragEvent) error {
	e.PreventDefault()
	e.StopPropagation()

	s.mu.Lock()
	switch e.Type {
	case DragEnter:
		s.dragging = true
	case DragLeave, Drop:
		s.dragging = false
	}
	s.mu.Unlock()

	if e.Type != Drop || len(e.Files) == 0 {
		return nil
	}
	file := e.Files[0]
	if !IsImageType(file.Type) {
		return nil
	}
	return s.SelectFile(ctx, file)
}
