package workspace

// EventType names what changed.
type EventType string

// Event types.
const (
	EventCreated   EventType = "created"
	EventReplaced  EventType = "replaced"
	EventOpened    EventType = "opened"
	EventEdited    EventType = "edited"
	EventSelected  EventType = "selected"
	EventMoved     EventType = "moved"
	EventClosed    EventType = "closed"
	EventRenamed   EventType = "renamed"
	EventDeleted   EventType = "deleted"
	EventSaved     EventType = "saved"
	EventToggled   EventType = "toggled"
	EventRefreshed EventType = "refreshed"
)

// Event is published after every action that changed the tree or the tabs.
type Event struct {
	Type    EventType `json:"type"`
	Path    string    `json:"path,omitempty"`
	OldPath string    `json:"oldPath,omitempty"`
	TabID   string    `json:"tabId,omitempty"`
}

// OnChange registers fn to be called after each change. Listeners run while
// the action still holds the controller, so they must not call back into it.
func (c *Controller) OnChange(fn func(Event)) {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) emit(ev Event) {
	c.lmu.RLock()
	defer c.lmu.RUnlock()
	for _, fn := range c.listeners {
		fn(ev)
	}
}
