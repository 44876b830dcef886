// Package bundle resolves where the script bundle comes from and fans in
// bundle download progress notifications to a single, replaceable observer.
package bundle

import (
	"strconv"
	"sync/atomic"
)

// Observer receives bundle download notifications.
type Observer interface {
	OnSuccess()
	OnProgress(p Progress)
	OnFailure(cause error)
}

// Progress is one download progress notification. A nil field is absent,
// which is distinct from a zero value.
type Progress struct {
	Status *string
	Done   *int
	Total  *int
}

// Optional returns a pointer to v, for populating Progress fields.
func Optional[T any](v T) *T {
	return &v
}

func (p Progress) String() string {
	status := "-"
	if p.Status != nil {
		status = *p.Status
	}
	count := func(v *int) string {
		if v == nil {
			return "-"
		}
		return strconv.Itoa(*v)
	}
	return status + " " + count(p.Done) + "/" + count(p.Total)
}

// ObserverFuncs adapts plain functions to Observer. Nil functions ignore
// their notification.
type ObserverFuncs struct {
	Success  func()
	Progress func(p Progress)
	Failure  func(cause error)
}

func (f ObserverFuncs) OnSuccess() {
	if f.Success != nil {
		f.Success()
	}
}

func (f ObserverFuncs) OnProgress(p Progress) {
	if f.Progress != nil {
		f.Progress(p)
	}
}

func (f ObserverFuncs) OnFailure(cause error) {
	if f.Failure != nil {
		f.Failure(cause)
	}
}

// observerSlot boxes an Observer so a nil interface can be stored and
// swapped through one atomic pointer.
type observerSlot struct {
	observer Observer
}

// Mediator is the stable Observer handed to the download subsystem. It
// forwards each notification verbatim to whichever observer is registered
// at the moment the notification begins, or drops it if none is.
//
// The zero value is ready to use.
type Mediator struct {
	slot atomic.Pointer[observerSlot]
}

var _ Observer = (*Mediator)(nil)

// SetObserver replaces the registered observer in a single atomic swap.
// Pass nil to clear it. It returns the observer that was replaced.
func (m *Mediator) SetObserver(o Observer) Observer {
	var next *observerSlot
	if o != nil {
		next = &observerSlot{observer: o}
	}
	if prev := m.slot.Swap(next); prev != nil {
		return prev.observer
	}
	return nil
}

// Observer returns the currently registered observer, or nil.
func (m *Mediator) Observer() Observer {
	if s := m.slot.Load(); s != nil {
		return s.observer
	}
	return nil
}

func (m *Mediator) OnSuccess() {
	if o := m.Observer(); o != nil {
		o.OnSuccess()
	}
}

func (m *Mediator) OnProgress(p Progress) {
	if o := m.Observer(); o != nil {
		o.OnProgress(p)
	}
}

func (m *Mediator) OnFailure(cause error) {
	if o := m.Observer(); o != nil {
		o.OnFailure(cause)
	}
}
