package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// ToolbarState is what the toolbar needs to know to enable its buttons
type ToolbarState struct {
	HasImage       bool
	IsCut          bool
	UpscaleEnabled bool
	Upscaling      bool
	Busy           bool
}

// ButtonStates lists which buttons are enabled for a state
type ButtonStates struct {
	Select, Cut, Undo, Save, Upscale, Cancel bool
}

// Buttons applies the enabling rules: Cut until the image is cut, Undo
// only after a cut, Upscale once tiles exist and an upscaler is
// configured, Cancel only while upscaling.
func (s ToolbarState) Buttons() ButtonStates {
	idle := !s.Upscaling && !s.Busy
	return ButtonStates{
		Select:  idle,
		Cut:     idle && s.HasImage && !s.IsCut,
		Undo:    idle && s.IsCut,
		Save:    idle && s.HasImage,
		Upscale: idle && s.IsCut && s.UpscaleEnabled,
		Cancel:  s.Upscaling,
	}
}

// Toolbar holds the action buttons
type Toolbar struct {
	container *fyne.Container

	selectButton  *widget.Button
	cutButton     *widget.Button
	undoButton    *widget.Button
	saveButton    *widget.Button
	upscaleButton *widget.Button
	cancelButton  *widget.Button

	state ToolbarState

	selectHandler  func()
	cutHandler     func()
	undoHandler    func()
	saveHandler    func()
	upscaleHandler func()
	cancelHandler  func()
}

// NewToolbar creates a new toolbar component
func NewToolbar() *Toolbar {
	t := &Toolbar{}
	t.createComponents()
	t.buildLayout()
	t.Apply(ToolbarState{})
	return t
}

func (t *Toolbar) createComponents() {
	t.selectButton = widget.NewButtonWithIcon("Select Image", theme.FolderOpenIcon(), func() { call(t.selectHandler) })
	t.selectButton.Importance = widget.HighImportance

	t.cutButton = widget.NewButtonWithIcon("Cut", theme.ContentCutIcon(), func() { call(t.cutHandler) })
	t.undoButton = widget.NewButtonWithIcon("Undo", theme.ContentUndoIcon(), func() { call(t.undoHandler) })
	t.saveButton = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), func() { call(t.saveHandler) })

	t.upscaleButton = widget.NewButtonWithIcon("Upscale", theme.UploadIcon(), func() { call(t.upscaleHandler) })
	t.upscaleButton.Importance = widget.HighImportance

	t.cancelButton = widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() { call(t.cancelHandler) })
	t.cancelButton.Importance = widget.DangerImportance
}

func (t *Toolbar) buildLayout() {
	t.container = container.NewHBox(
		t.selectButton,
		widget.NewSeparator(),
		t.cutButton,
		t.undoButton,
		t.saveButton,
		widget.NewSeparator(),
		t.upscaleButton,
		t.cancelButton,
	)
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func (t *Toolbar) SetSelectHandler(handler func())  { t.selectHandler = handler }
func (t *Toolbar) SetCutHandler(handler func())     { t.cutHandler = handler }
func (t *Toolbar) SetUndoHandler(handler func())    { t.undoHandler = handler }
func (t *Toolbar) SetSaveHandler(handler func())    { t.saveHandler = handler }
func (t *Toolbar) SetUpscaleHandler(handler func()) { t.upscaleHandler = handler }
func (t *Toolbar) SetCancelHandler(handler func())  { t.cancelHandler = handler }

// Apply enables and disables buttons for state. Must run on the UI thread.
func (t *Toolbar) Apply(state ToolbarState) {
	t.state = state
	b := state.Buttons()

	setEnabled(t.selectButton, b.Select)
	setEnabled(t.cutButton, b.Cut)
	setEnabled(t.undoButton, b.Undo)
	setEnabled(t.saveButton, b.Save)
	setEnabled(t.upscaleButton, b.Upscale)
	setEnabled(t.cancelButton, b.Cancel)

	if state.UpscaleEnabled {
		t.upscaleButton.Show()
	} else {
		t.upscaleButton.Hide()
	}
}

func (t *Toolbar) State() ToolbarState { return t.state }

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

// GetContainer returns the toolbar container
func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}
