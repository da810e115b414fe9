package cli

import (
	"sync"

	"github.com/dmitrijs2005/iotadmin/internal/client/session"
)

// router keeps the screen history. It satisfies session.Navigator and may be
// driven from background goroutines when an upload hits an expired session.
type router struct {
	mu      sync.Mutex
	history []session.Screen
}

func newRouter(start session.Screen) *router {
	return &router{history: []session.Screen{start}}
}

// Navigate pushes to onto the history unless it is already the current screen.
func (r *router) Navigate(to session.Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) > 0 && r.history[len(r.history)-1] == to {
		return
	}
	r.history = append(r.history, to)
}

// Redirect replaces the whole history, so back cannot return to a screen the
// operator was thrown out of.
func (r *router) Redirect(to session.Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = []session.Screen{to}
}

// Back pops the current screen and reports whether there was one to leave.
func (r *router) Back() (session.Screen, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) < 2 {
		return r.history[0], false
	}
	r.history = r.history[:len(r.history)-1]
	return r.history[len(r.history)-1], true
}

func (r *router) Current() session.Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[len(r.history)-1]
}

func (r *router) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}
