package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nuzDop/limitless-storage/internal/ata"
	"github.com/nuzDop/limitless-storage/internal/schema"
)

func newIdleATAHandler() *ata.Handler {
	bus := ata.NewImageBus(&schema.Unix{}, ata.LegacyChannels(), map[int]*ata.Media{})

	return ata.NewHandler(bus, &schema.SysClock{}, ata.LegacyChannels(), 0)
}

// TestTeaModel_Init_SignalsReady checks that readiness is raised by the
// model's initialization itself. A window size report never arrives when the
// output is not a terminal, so waiting on one would deadlock any caller
// polling the handler's readiness flag.
func TestTeaModel_Init_SignalsReady(t *testing.T) {
	t.Parallel()

	_, cancel := context.WithCancel(t.Context())
	defer cancel()

	handler := &Handler{ataHandler: newIdleATAHandler()}
	model := NewTeaModel(handler, handler.ataHandler, nil, cancel)

	if handler.Ready.Load() {
		t.Fatal("Readiness must not be set before initialization")
	}

	_ = model.Init()

	if !handler.Ready.Load() {
		t.Fatal("Readiness was not set by the model's initialization")
	}
}

// TestTeaUI is an integration test for the command-line user interface.
func TestTeaUI(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var in bytes.Buffer

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	handler := &Handler{ataHandler: newIdleATAHandler()}
	mounts := []MountInfo{{Device: "mem0", MountPoint: "/", Type: "ramdisk"}}

	model := NewTeaModel(handler, handler.ataHandler, mounts, cancel)
	program := tea.NewProgram(model, tea.WithInput(&in), tea.WithOutput(&buf), tea.WithAltScreen(), tea.WithContext(ctx))

	handler.program = program
	handler.LogWriter = NewTeaLogWriter(handler.program)

	go func() {
		// Simulate some fast-paced logs and key presses for the UI.
		for {
			time.Sleep(time.Millisecond)
			if handler.Ready.Load() {
				program.Send(tea.WindowSizeMsg{Width: 200, Height: 200})
				time.Sleep(time.Millisecond)

				program.Send(LogMsg("log1"))
				time.Sleep(time.Millisecond)

				_, _ = handler.LogWriter.Write([]byte("log2"))
				time.Sleep(time.Millisecond)

				for range 150 {
					_, _ = handler.LogWriter.Write([]byte("fast logs"))
				}
				time.Sleep(time.Millisecond)

				program.Send(tea.WindowSizeMsg{Width: 200, Height: 250})

				time.Sleep(2 * time.Second)
				program.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

				return
			}
			if handler.Failed.Load() {
				return
			}
		}
	}()

	if err := handler.Launch(); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}

	if buf.Len() == 0 {
		t.Fatal("UI generated no output at all")
	}

	by := buf.Bytes()

	if !bytes.Contains(by, []byte("log1")) {
		t.Fatal("UI did not show the first log message sent (via program.Send)")
	}

	if !bytes.Contains(by, []byte("log2")) {
		t.Fatal("UI did not show the second log message sent (via LogWriter)")
	}

	if !bytes.Contains(by, []byte("ramdisk")) {
		t.Fatal("UI did not render the mount table.")
	}
}

// TestTeaUI_Ctrl_C is an integration test for the command-line user interface.
// A Ctrl+C keypress is simulated, which should trigger upstream Context
// cancellation for signalling application teardown.
func TestTeaUI_Ctrl_C(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var in bytes.Buffer

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	handler := &Handler{ataHandler: newIdleATAHandler()}

	model := NewTeaModel(handler, handler.ataHandler, nil, cancel)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithInput(&in), tea.WithOutput(&buf), tea.WithContext(ctx))

	handler.program = program
	handler.LogWriter = NewTeaLogWriter(handler.program)

	go func() {
		for {
			time.Sleep(time.Millisecond)
			if handler.Ready.Load() {
				program.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

				return
			}
			if handler.Failed.Load() {
				return
			}
		}
	}()

	err := handler.Launch()

	if err == nil {
		t.Fatalf("Expected %v, got nil", context.Canceled)
	}

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected %v, got %v", context.Canceled, err)
	}

	if buf.Len() == 0 {
		t.Fatal("UI generated no output at all")
	}
}
