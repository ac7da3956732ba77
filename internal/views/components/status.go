package components

import (
	"fmt"
	"strings"

	"grid-splitter/internal/grid"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatusBar displays the status message, image size and line positions
type StatusBar struct {
	container   *fyne.Container
	statusLabel *widget.Label
	imageInfo   *widget.Label
	linesInfo   *widget.Label
}

// NewStatusBar creates a new status bar component
func NewStatusBar() *StatusBar {
	sb := &StatusBar{
		statusLabel: widget.NewLabel("Ready"),
		imageInfo:   widget.NewLabel("No image loaded"),
		linesInfo:   widget.NewLabel(""),
	}
	sb.linesInfo.Truncation = fyne.TextTruncateEllipsis

	sb.container = container.NewBorder(nil, nil,
		container.NewHBox(sb.statusLabel, widget.NewSeparator(), sb.imageInfo, widget.NewSeparator()),
		nil,
		sb.linesInfo,
	)
	return sb
}

func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

func (sb *StatusBar) GetStatus() string {
	return sb.statusLabel.Text
}

func (sb *StatusBar) SetImageInfo(width, height int, format string) {
	sb.imageInfo.SetText(fmt.Sprintf("Image: %dx%d %s", width, height, format))
}

// SetLines shows every line position in source pixels.
func (sb *StatusBar) SetLines(lines grid.Lines, srcW, srcH int) {
	sb.linesInfo.SetText(FormatLines(lines, srcW, srcH))
}

func (sb *StatusBar) Reset() {
	sb.statusLabel.SetText("Ready")
	sb.imageInfo.SetText("No image loaded")
	sb.linesInfo.SetText("")
}

// GetContainer returns the status bar container
func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

// FormatLines renders line captions as "x: 300, x: 600 | y: 200".
func FormatLines(lines grid.Lines, srcW, srcH int) string {
	var xs, ys []string
	for i := range lines.V {
		xs = append(xs, grid.Label(grid.LineRef{Orientation: grid.Vertical, Index: i}, lines, srcW, srcH))
	}
	for i := range lines.H {
		ys = append(ys, grid.Label(grid.LineRef{Orientation: grid.Horizontal, Index: i}, lines, srcW, srcH))
	}
	return strings.Join(xs, ", ") + " | " + strings.Join(ys, ", ")
}

// ProgressBar displays upscale progress with stage information
type ProgressBar struct {
	container   *fyne.Container
	progressBar *widget.ProgressBar
	stageLabel  *widget.Label
}

// NewProgressBar creates a new progress bar component
func NewProgressBar() *ProgressBar {
	pb := &ProgressBar{
		progressBar: widget.NewProgressBar(),
		stageLabel:  widget.NewLabel("Ready"),
	}
	pb.container = container.NewBorder(nil, nil, pb.stageLabel, nil, pb.progressBar)
	pb.container.Hide()
	return pb
}

// SetProgress updates the progress value (0.0 to 1.0)
func (pb *ProgressBar) SetProgress(progress float64) {
	if progress < 0.0 {
		progress = 0.0
	} else if progress > 1.0 {
		progress = 1.0
	}
	pb.progressBar.SetValue(progress)
}

func (pb *ProgressBar) GetProgress() float64 {
	return pb.progressBar.Value
}

func (pb *ProgressBar) SetStage(stage string) {
	pb.stageLabel.SetText(stage)
}

func (pb *ProgressBar) GetStage() string {
	return pb.stageLabel.Text
}

func (pb *ProgressBar) SetVisible(visible bool) {
	if visible {
		pb.container.Show()
	} else {
		pb.container.Hide()
	}
}

func (pb *ProgressBar) IsVisible() bool {
	return pb.container.Visible()
}

func (pb *ProgressBar) Reset() {
	pb.progressBar.SetValue(0.0)
	pb.stageLabel.SetText("Ready")
	pb.SetVisible(false)
}

// GetContainer returns the progress bar container
func (pb *ProgressBar) GetContainer() *fyne.Container {
	return pb.container
}
