// Package ui implements a command-line user interface using [tea].
package ui

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nuzDop/limitless-storage/internal/ata"
)

// MountInfo is one row of the dashboard's mount table, captured at launch.
type MountInfo struct {
	Device     string
	MountPoint string
	Type       string
}

// Handler is the principal implementation of a user interface [Handler].
type Handler struct {
	ataHandler *ata.Handler
	program    *tea.Program

	LogWriter *TeaLogWriter

	Ready  atomic.Bool
	Failed atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler]. The mount
// table is rendered as captured here; the drive statistics are sampled live.
func NewHandler(ctx context.Context, cancel context.CancelFunc, ataHandler *ata.Handler, mounts []MountInfo) *Handler {
	handler := &Handler{
		ataHandler: ataHandler,
	}

	model := NewTeaModel(handler, ataHandler, mounts, cancel)
	handler.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Launch starts the command-line user interface (the [tea.Program]).
func (uiHandler *Handler) Launch() error {
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}
