// Package gui provides the desktop dashboard for alloc-admin.
package gui

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/pminternship/alloc-admin/internal/core"
	"github.com/pminternship/alloc-admin/internal/logging"
	"github.com/pminternship/alloc-admin/internal/models"
)

// AppID identifies the application to the fyne preferences store.
const AppID = "org.pminternship.alloc-admin"

// Options carries the upload defaults shown when the window opens.
type Options struct {
	AutoAllocate bool
	UploadMode   models.UploadMode
	Logger       *logging.Logger
}

// Run opens the dashboard window and blocks until it is closed.
func Run(ctx context.Context, engine *core.Engine, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(logging.ModeGUI)
	}
	logger := opts.Logger.Named("gui")

	// Check for display on Linux
	if runtime.GOOS == "linux" {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			return fmt.Errorf("GUI mode requires a display. No display detected.\n" +
				"DISPLAY and WAYLAND_DISPLAY are not set.\n" +
				"Use 'alloc-admin tui' for a terminal dashboard")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go monitorGoroutines(ctx, logger)

	fyneApp := app.NewWithID(AppID)
	fyneApp.Settings().SetTheme(&allocTheme{})

	window := fyneApp.NewWindow("Internship Allocation Admin")
	window.SetMaster()

	dash := NewDashboard(engine, window, opts)
	dash.SetURLOpener(fyneApp.OpenURL)
	window.SetContent(dash.Build())
	window.Resize(fyne.NewSize(1200, 780))
	window.CenterOnScreen()

	dash.Start(ctx)
	window.SetOnClosed(func() {
		cancel()
		dash.Stop()
	})

	// the window also closes when the parent context is cancelled (Ctrl+C)
	go func() {
		<-ctx.Done()
		fyne.Do(fyneApp.Quit)
	}()

	logger.Info().Msg("Dashboard opened")
	window.ShowAndRun()
	return nil
}

var goroutineCount int64

func monitorGoroutines(ctx context.Context, logger *logging.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		count := runtime.NumGoroutine()
		prev := atomic.SwapInt64(&goroutineCount, int64(count))
		delta := int64(count) - prev

		logger.Debug().
			Int("count", count).
			Int64("delta", delta).
			Msg("[MONITOR] Goroutines")

		if prev > 0 && delta > 20 {
			logger.Warn().
				Int64("delta", delta).
				Msg("[MONITOR] Rapid goroutine growth")
		}
	}
}
