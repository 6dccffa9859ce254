package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/nuzDop/limitless-storage/internal/ata"
	"github.com/nuzDop/limitless-storage/internal/configuration"
	"github.com/nuzDop/limitless-storage/internal/ramdisk"
	"github.com/nuzDop/limitless-storage/internal/schema"
	"github.com/nuzDop/limitless-storage/internal/ui"
	"github.com/nuzDop/limitless-storage/internal/vfs"
)

const (
	stackTraceBufMax = 1 << 24
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  string

	uiEnabled  = flag.Bool("ui", true, "enable the UI")
	configFile = flag.String("config", "/etc/storaged.env", "path to the configuration file")
	verify     = flag.Bool("verify", false, "print media digests of all detected drives and exit")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func setupLogging() {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}),
	))
}

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()

	sigChan3 := make(chan os.Signal, 1)
	signal.Notify(sigChan3, syscall.SIGUSR2)
	go func() {
		for range sigChan3 {
			runtime.GC()
		}
	}()
}

// loadConfiguration reads the configuration file, falling back to the
// built-in defaults when the file does not exist.
func loadConfiguration(path string) *configuration.AppConfiguration {
	configHandler := &configuration.ConfigProviderImpl{
		GenericConfigReader: &configuration.GodotenvProvider{},
	}

	if _, err := os.Stat(path); err != nil {
		slog.Warn("No configuration file found; using defaults.", "path", path)

		return configuration.NewAppConfiguration()
	}

	config, err := configHandler.LoadAppConfiguration(path)
	if err != nil {
		slog.Warn("Failed to load configuration; using defaults.",
			"path", path,
			"err", err,
		)

		return configuration.NewAppConfiguration()
	}

	return config
}

func startApp(ctx context.Context, wg *sync.WaitGroup, app *App) {
	defer wg.Done()

	if app.uiHandler != nil {
		slog.Info("Waiting for UI...")

		ticker := time.NewTicker(10 * time.Millisecond) //nolint:mnd
		defer ticker.Stop()

		for !app.uiHandler.Ready.Load() && !app.uiHandler.Failed.Load() {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}

	if err := app.Launch(ctx); err != nil {
		ExitCode = 1
	}
}

func startUI(wg *sync.WaitGroup, app *App) {
	defer wg.Done()

	if app.uiHandler != nil {
		defer setupLogging()

		if err := app.LaunchUI(); err != nil {
			slog.Error("UI failure: falling back to terminal.", "err", err)
		}
	}
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flag.Parse()
	setupLogging()
	setupSignalHandlers(cancel)

	memObserver := newMemoryObserver(ctx)
	defer memObserver.Stop()

	cpuProfiler := NewCPUProfiler(ctx, cpuprofile)
	defer cpuProfiler.Stop()

	allocProfiler := NewAllocProfiler(ctx, memprofile)
	defer allocProfiler.Stop()

	config := loadConfiguration(*configFile)
	clock := &schema.SysClock{}

	vfsHandler := vfs.NewHandler(config.MaxOpenHandles)
	defer vfsHandler.Shutdown()

	ramdiskType := ramdisk.New(clock, config.RamdiskCapacity, config.RamdiskMaxFileSize)
	if err := ramdiskType.Register(vfsHandler); err != nil {
		slog.Error("Failed to register the boot filesystem.", "err", err)
		ExitCode = 1

		return
	}

	if err := vfsHandler.Mount("mem0", "/", ramdisk.TypeName, 0); err != nil {
		slog.Error("Failed to mount the boot filesystem.", "err", err)
		ExitCode = 1

		return
	}

	unixOps := &schema.Unix{}

	media, closeImages, err := openDiskImages(unixOps, config.DeviceImages)
	if err != nil {
		slog.Error("Failed to open disk images.", "err", err)
		ExitCode = 1

		return
	}
	defer closeImages()

	bus := ata.NewImageBus(unixOps, ata.LegacyChannels(), media)
	ataHandler := ata.NewHandler(bus, clock, ata.LegacyChannels(), config.ATATimeout)

	if err := ataHandler.Init(ctx); err != nil {
		slog.Warn("Drive detection failed; continuing without drives.", "err", err)
	}
	defer ataHandler.Shutdown()

	if *verify {
		if err := verifyMedia(ataHandler); err != nil {
			ExitCode = 1
		}

		return
	}

	var uiHandler *ui.Handler
	if uiEnabled != nil && *uiEnabled {
		mounts := make([]ui.MountInfo, 0, len(vfsHandler.Mounts()))
		for _, mnt := range vfsHandler.Mounts() {
			mounts = append(mounts, ui.MountInfo{
				Device:     mnt.Device,
				MountPoint: mnt.MountPoint,
				Type:       mnt.Filesystem.Name(),
			})
		}

		uiHandler = ui.NewHandler(ctx, cancel, ataHandler, mounts)
	}

	var wg sync.WaitGroup
	app := NewApp(config, vfsHandler, ataHandler, uiHandler)

	wg.Add(1)
	go startUI(&wg, app)

	wg.Add(1)
	go startApp(ctx, &wg, app)

	wg.Wait()
}
