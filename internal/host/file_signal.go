package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSignal is a ThemeSignal whose identifier is the trimmed content of
// a file. Edits to the file are picked up through fsnotify and delivered
// through dispatch, which lets a host run the notification on its loop
// goroutine (see Loop.Post). A nil dispatch calls subscribers on the
// watcher goroutine.
type FileSignal struct {
	*ThemeSignal

	path     string
	watcher  *fsnotify.Watcher
	dispatch func(func())

	errMu   sync.Mutex
	onError func(error)

	done chan struct{}
	once sync.Once
}

// NewFileSignal reads path and starts watching it. A missing file is not
// an error: the theme stays empty until the file is created.
func NewFileSignal(path string, dispatch func(func())) (*FileSignal, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("theme file: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("theme file watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are followed.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}

	s := &FileSignal{
		path:     abs,
		watcher:  w,
		dispatch: dispatch,
		done:     make(chan struct{}),
	}
	theme, _ := readTheme(abs)
	s.ThemeSignal = NewThemeSignal(theme)

	go s.watch()
	return s, nil
}

// OnError registers a callback for watcher errors, replacing any earlier
// one. It runs on the watcher goroutine.
func (s *FileSignal) OnError(fn func(error)) {
	s.errMu.Lock()
	s.onError = fn
	s.errMu.Unlock()
}

func (s *FileSignal) Path() string { return s.path }

func (s *FileSignal) watch() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			theme, err := readTheme(s.path)
			if err != nil {
				s.reportError(err)
				continue
			}
			// A truncating write shows up as an empty file first.
			if theme == "" {
				continue
			}
			s.dispatch(func() { s.Set(theme) })
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.reportError(err)
		}
	}
}

func (s *FileSignal) reportError(err error) {
	s.errMu.Lock()
	fn := s.onError
	s.errMu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// Close stops watching. Subscribers are kept but never notified again.
func (s *FileSignal) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.watcher.Close()
	})
	return err
}

func readTheme(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(b), "\n")
	return strings.TrimSpace(line), nil
}
