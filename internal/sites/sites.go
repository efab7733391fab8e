// Package sites tracks the list of sites the user can shop for and which one
// is currently selected.
package sites

import (
	"errors"
	"fmt"
	"sync"

	"github.com/stacklok/cartsync/internal/emitter"
)

// ErrSiteNotFound is returned when selecting a site that is not in the list.
var ErrSiteNotFound = errors.New("site not found")

// Site is a site the cart can be bound to.
type Site struct {
	ID   int64  `json:"ID" yaml:"id"`
	Slug string `json:"slug" yaml:"slug"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// SiteID returns the site identifier
func (s *Site) SiteID() int64 {
	return s.ID
}

// List holds the known sites and the current selection. Every change to the
// list or the selection emits a change notification.
type List struct {
	emitter.Emitter

	mu       sync.RWMutex
	sites    []Site
	selected *Site
	fetched  bool
}

// NewList creates an empty, unfetched site list.
func NewList() *List {
	return &List{}
}

// SetSites replaces the known sites and marks the list as fetched. A selected
// site that is no longer listed is deselected.
func (l *List) SetSites(sites []Site) {
	l.mu.Lock()
	l.sites = append([]Site(nil), sites...)
	l.fetched = true
	if l.selected != nil {
		if s := l.find(l.selected.ID); s != nil {
			l.selected = s
		} else {
			l.selected = nil
		}
	}
	l.mu.Unlock()

	l.Emit()
}

// Fetched reports whether the initial site list load has completed.
func (l *List) Fetched() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fetched
}

// Sites returns a copy of the known sites.
func (l *List) Sites() []Site {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Site(nil), l.sites...)
}

// SelectedSite returns the selected site, or nil when none is selected.
func (l *List) SelectedSite() *Site {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.selected == nil {
		return nil
	}
	s := *l.selected
	return &s
}

// Select makes the site with the given ID the selected one.
func (l *List) Select(id int64) error {
	l.mu.Lock()
	s := l.find(id)
	if s == nil {
		l.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrSiteNotFound, id)
	}
	l.selected = s
	l.mu.Unlock()

	l.Emit()
	return nil
}

// ClearSelection deselects the current site.
func (l *List) ClearSelection() {
	l.mu.Lock()
	l.selected = nil
	l.mu.Unlock()

	l.Emit()
}

// find must be called with l.mu held.
func (l *List) find(id int64) *Site {
	for i := range l.sites {
		if l.sites[i].ID == id {
			s := l.sites[i]
			return &s
		}
	}
	return nil
}
