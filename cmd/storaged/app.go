package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
	"github.com/nuzDop/limitless-storage/internal/ata"
	"github.com/nuzDop/limitless-storage/internal/configuration"
	"github.com/nuzDop/limitless-storage/internal/ui"
	"github.com/nuzDop/limitless-storage/internal/vfs"
)

type App struct {
	config     *configuration.AppConfiguration
	vfsHandler *vfs.Handler
	ataHandler *ata.Handler
	uiHandler  *ui.Handler
}

func NewApp(config *configuration.AppConfiguration,
	vfsHandler *vfs.Handler,
	ataHandler *ata.Handler,
	uiHandler *ui.Handler,
) *App {
	return &App{
		config:     config,
		vfsHandler: vfsHandler,
		ataHandler: ataHandler,
		uiHandler:  uiHandler,
	}
}

// Launch seeds the boot filesystem and then serves until the context is
// cancelled.
func (app *App) Launch(ctx context.Context) error {
	if err := app.seedBootFilesystem(); err != nil {
		return fmt.Errorf("(app) %w", err)
	}

	slog.Info("Storage stack is up.",
		"drives", app.ataHandler.DeviceCount(),
		"mounts", len(app.vfsHandler.Mounts()),
	)

	<-ctx.Done()

	return nil
}

// seedBootFilesystem writes the well-known boot records into the freshly
// mounted root, exercising the full call surface once before serving.
func (app *App) seedBootFilesystem() error {
	if err := app.vfsHandler.Mkdir("/etc", 0o755); err != nil {
		return fmt.Errorf("failed to create /etc: %w", err)
	}

	fd, err := app.vfsHandler.Open("/etc/drives.tab", vfs.OpenRDWR|vfs.OpenCreate, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create the drive table: %w", err)
	}

	for _, dev := range app.ataHandler.Devices() {
		line := fmt.Sprintf("ata%d\t%s\t%s\t%d\n", dev.ID, dev.Model, dev.Serial, dev.Sectors)
		if _, err := app.vfsHandler.Write(fd, []byte(line)); err != nil {
			_ = app.vfsHandler.Close(fd)

			return fmt.Errorf("failed to write the drive table: %w", err)
		}
	}

	if err := app.vfsHandler.Close(fd); err != nil {
		return fmt.Errorf("failed to close the drive table: %w", err)
	}

	return nil
}

// LaunchUI redirects logging into the user interface and runs it until quit.
func (app *App) LaunchUI() error {
	slog.SetDefault(slog.New(
		tint.NewHandler(app.uiHandler.LogWriter, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}),
	))

	if err := app.uiHandler.Launch(); err != nil {
		return fmt.Errorf("(app-ui) %w", err)
	}

	return nil
}
