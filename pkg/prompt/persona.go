package prompt

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FilePersona serves the system preamble from a file and reloads it when
// the file changes, so persona edits take effect without a restart.
type FilePersona struct {
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	timer    *time.Timer
	stopCh   chan struct{}

	mu   sync.RWMutex
	text string
}

// NewFilePersona loads the persona file and starts watching it. The file
// must exist and be non-empty at startup.
func NewFilePersona(path string, logger zerolog.Logger) (*FilePersona, error) {
	text, err := readPersonaFile(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fp := &FilePersona{
		path:     path,
		logger:   logger.With().Str("component", "persona").Logger(),
		watcher:  watcher,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		text:     text,
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	go fp.run()

	fp.logger.Info().Str("file", path).Msg("Persona file loaded")

	return fp, nil
}

// Persona returns the current preamble text.
func (fp *FilePersona) Persona() string {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	return fp.text
}

// Stop stops the file watcher.
func (fp *FilePersona) Stop() error {
	close(fp.stopCh)
	return fp.watcher.Close()
}

// run processes file system events
func (fp *FilePersona) run() {
	for {
		select {
		case event, ok := <-fp.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fp.scheduleReload()
			}

		case err, ok := <-fp.watcher.Errors:
			if !ok {
				return
			}
			fp.logger.Warn().Err(err).Msg("Persona watcher error")

		case <-fp.stopCh:
			return
		}
	}
}

// scheduleReload debounces bursts of write events into one reload
func (fp *FilePersona) scheduleReload() {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.timer != nil {
		fp.timer.Stop()
	}
	fp.timer = time.AfterFunc(fp.debounce, fp.reload)
}

func (fp *FilePersona) reload() {
	text, err := readPersonaFile(fp.path)
	if err != nil {
		fp.logger.Warn().Err(err).Msg("Persona reload failed, keeping previous text")
		return
	}

	fp.mu.Lock()
	fp.text = text
	fp.mu.Unlock()

	fp.logger.Info().Str("file", fp.path).Msg("Persona reloaded")
}

func readPersonaFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("persona file %s is empty", path)
	}
	return text, nil
}
