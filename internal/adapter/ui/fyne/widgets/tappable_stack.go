// Package widgets provides custom Fyne widgets for the GoVis application.
package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// TappableStack wraps the visualizer area. A primary tap toggles playback and
// a secondary tap (right-click) opens a context menu at the pointer.
type TappableStack struct {
	widget.BaseWidget

	content fyne.CanvasObject
	onTap   func()
	menu    func() *fyne.Menu

	// hovered is read by tests and the cursor handling.
	hovered bool
}

// NewTappableStack creates a new tappable stack with the given content.
// menu builds the context menu on demand so it reflects the current state;
// it may be nil.
func NewTappableStack(content fyne.CanvasObject, onTap func(), menu func() *fyne.Menu) *TappableStack {
	t := &TappableStack{
		content: content,
		onTap:   onTap,
		menu:    menu,
	}
	t.ExtendBaseWidget(t)
	return t
}

// CreateRenderer implements fyne.Widget.
func (t *TappableStack) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

// MinSize follows the wrapped content.
func (t *TappableStack) MinSize() fyne.Size {
	return t.content.MinSize()
}

// Tapped implements fyne.Tappable (primary tap - left click).
func (t *TappableStack) Tapped(*fyne.PointEvent) {
	if t.onTap != nil {
		t.onTap()
	}
}

// TappedSecondary implements fyne.SecondaryTappable (right-click).
func (t *TappableStack) TappedSecondary(pe *fyne.PointEvent) {
	if t.menu == nil {
		return
	}
	m := t.menu()
	if m == nil || len(m.Items) == 0 {
		return
	}
	c := fyne.CurrentApp().Driver().CanvasForObject(t)
	if c == nil {
		return
	}
	widget.ShowPopUpMenuAtPosition(m, c, pe.AbsolutePosition)
}

// MouseIn implements desktop.Hoverable.
func (t *TappableStack) MouseIn(*desktop.MouseEvent) { t.hovered = true }

// MouseMoved implements desktop.Hoverable.
func (t *TappableStack) MouseMoved(*desktop.MouseEvent) {}

// MouseOut implements desktop.Hoverable.
func (t *TappableStack) MouseOut() { t.hovered = false }

// Cursor shows a pointer while hovering, hinting that the area is clickable.
func (t *TappableStack) Cursor() desktop.Cursor {
	if t.hovered {
		return desktop.PointerCursor
	}
	return desktop.DefaultCursor
}

// Ensure TappableStack implements the required interfaces
var _ fyne.Tappable = (*TappableStack)(nil)
var _ fyne.SecondaryTappable = (*TappableStack)(nil)
var _ desktop.Hoverable = (*TappableStack)(nil)
var _ desktop.Cursorable = (*TappableStack)(nil)
