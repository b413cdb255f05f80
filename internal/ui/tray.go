package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/demostudio/demostudio-agent/internal/session"
)

type Tray struct {
	session *session.Session
	logger  *slog.Logger

	projectItem   *systray.MenuItem
	transportItem *systray.MenuItem
	saveItem      *systray.MenuItem

	mu sync.Mutex

	onSave func() error
	onQuit func()
}

type TrayConfig struct {
	Session *session.Session
	Logger  *slog.Logger
	OnSave  func() error
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		session: cfg.Session,
		logger:  cfg.Logger,
		onSave:  cfg.OnSave,
		onQuit:  cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("DemoStudio")
	systray.SetTooltip("DemoStudio Agent")

	project := t.session.Project()
	t.projectItem = systray.AddMenuItem("Project: "+project.Name, "Open project")
	t.projectItem.Disable()

	systray.AddSeparator()

	t.transportItem = systray.AddMenuItem("Play", "Toggle playback")
	t.saveItem = systray.AddMenuItem("Save Now", "Save the project immediately")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit DemoStudio Agent")

	go func() {
		for {
			select {
			case <-t.transportItem.ClickedCh:
				t.togglePlayback()
			case <-t.saveItem.ClickedCh:
				t.handleSave()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	// Keep the transport label current while the clock runs.
	t.session.Clock().Subscribe(func(positionMs int64, playing bool) {
		t.updateTransport(positionMs, playing)
	})

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePlayback() {
	clock := t.session.Clock()
	if clock.IsPlaying() {
		clock.Pause()
	} else {
		clock.Play()
	}
	t.updateTransport(clock.PositionMs(), clock.IsPlaying())
}

func (t *Tray) updateTransport(positionMs int64, playing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if playing {
		t.transportItem.SetTitle(fmt.Sprintf("Pause (%d:%02d)", positionMs/60000, positionMs/1000%60))
	} else {
		t.transportItem.SetTitle("Play")
	}
}

func (t *Tray) handleSave() {
	if t.onSave == nil {
		return
	}
	if err := t.onSave(); err != nil {
		t.logger.Error("manual save failed", "error", err)
	}
}

func (t *Tray) UpdateProject(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projectItem.SetTitle("Project: " + name)
}

func (t *Tray) Quit() {
	systray.Quit()
}
