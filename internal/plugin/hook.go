// Package plugin defines the lifecycle events muda reports to an optional
// extension and the ways such an extension can be attached.
package plugin

import (
	"errors"
	"fmt"
)

// ErrUnhandled is returned by a hook that does not accept an event
var ErrUnhandled = errors.New("plugin: event not handled")

// Hook receives lifecycle events. A returned error only decides whether
// muda logs a warning; it never stops a build.
type Hook interface {
	OnDetect(d *Detection) error
	OnUnhandledProperty(e *ParseEvent) error
	OnPrebuild(e *BuildEvent) error
	OnPostbuild(e *BuildEvent) error
	OnDestroy() error
}

// Null is the hook used when no plugin is loaded. It accepts every build
// event and rejects unknown properties.
type Null struct{}

func (Null) OnDetect(*Detection) error             { return ErrUnhandled }
func (Null) OnUnhandledProperty(*ParseEvent) error { return ErrUnhandled }
func (Null) OnPrebuild(*BuildEvent) error          { return nil }
func (Null) OnPostbuild(*BuildEvent) error         { return nil }
func (Null) OnDestroy() error                      { return nil }

// Dispatch routes a tagged event to the matching hook method
func Dispatch(h Hook, ev Event) error {
	switch ev.Kind {
	case EventDetection:
		if ev.Detection == nil {
			ev.Detection = &Detection{}
		}
		return h.OnDetect(ev.Detection)
	case EventParseUnhandledProperty:
		if ev.Parse == nil {
			return fmt.Errorf("plugin: %s event without payload", ev.Kind)
		}
		return h.OnUnhandledProperty(ev.Parse)
	case EventPrebuild:
		if ev.Build == nil {
			return fmt.Errorf("plugin: %s event without payload", ev.Kind)
		}
		return h.OnPrebuild(ev.Build)
	case EventPostbuild:
		if ev.Build == nil {
			return fmt.Errorf("plugin: %s event without payload", ev.Kind)
		}
		return h.OnPostbuild(ev.Build)
	case EventDestroy:
		return h.OnDestroy()
	}
	return fmt.Errorf("plugin: unknown event %s", ev.Kind)
}
