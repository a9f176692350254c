package host

import (
	"strings"
	"sync"
)

// subscribers is a set of callbacks notified in subscription order.
type subscribers[F any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]F
	ids  []int
}

func (s *subscribers[F]) add(fn F) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]F)
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	s.ids = append(s.ids, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.fns, id)
			for i, v := range s.ids {
				if v == id {
					s.ids = append(s.ids[:i], s.ids[i+1:]...)
					break
				}
			}
		})
	}
}

// snapshot copies the callbacks so they can be called without the lock.
func (s *subscribers[F]) snapshot() []F {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]F, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.fns[id])
	}
	return out
}

func (s *subscribers[F]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Viewport is a settable surface size. Resize notifies subscribers
// synchronously on the caller's goroutine.
type Viewport struct {
	mu   sync.Mutex
	w, h int
	subs subscribers[func(w, h int)]
}

func NewViewport(w, h int) *Viewport {
	return &Viewport{w: w, h: h}
}

func (v *Viewport) Size() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.w, v.h
}

func (v *Viewport) OnResize(fn func(w, h int)) func() {
	return v.subs.add(fn)
}

// Resize records a new size and notifies subscribers if it changed.
func (v *Viewport) Resize(w, h int) {
	v.mu.Lock()
	if v.w == w && v.h == h {
		v.mu.Unlock()
		return
	}
	v.w, v.h = w, h
	v.mu.Unlock()

	for _, fn := range v.subs.snapshot() {
		fn(w, h)
	}
}

// Subscribers returns the number of attached resize listeners.
func (v *Viewport) Subscribers() int { return v.subs.count() }

// ThemeSignal holds the current theme identifier. Set notifies
// subscribers synchronously on the caller's goroutine.
type ThemeSignal struct {
	mu    sync.Mutex
	theme string
	subs  subscribers[func(string)]
}

func NewThemeSignal(theme string) *ThemeSignal {
	return &ThemeSignal{theme: theme}
}

func (t *ThemeSignal) Theme() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.theme
}

func (t *ThemeSignal) Subscribe(fn func(string)) func() {
	return t.subs.add(fn)
}

// Set changes the theme and notifies subscribers if it differs from the
// current one. Surrounding whitespace is ignored.
func (t *ThemeSignal) Set(theme string) {
	theme = strings.TrimSpace(theme)
	t.mu.Lock()
	if t.theme == theme {
		t.mu.Unlock()
		return
	}
	t.theme = theme
	t.mu.Unlock()

	for _, fn := range t.subs.snapshot() {
		fn(theme)
	}
}

// Subscribers returns the number of attached theme listeners.
func (t *ThemeSignal) Subscribers() int { return t.subs.count() }

// Cycle sets the theme that follows the current one in names, wrapping
// around. It returns the new theme.
func (t *ThemeSignal) Cycle(names []string) string {
	if len(names) == 0 {
		return t.Theme()
	}
	cur := strings.ToLower(t.Theme())
	next := names[0]
	for i, n := range names {
		if n == cur {
			next = names[(i+1)%len(names)]
			break
		}
	}
	t.Set(next)
	return next
}
