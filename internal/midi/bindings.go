package midi

// Binding describes one configured action trigger.
type Binding struct {
	Action   string
	Type     MessageType
	Number   int
	Channel  int // -1 means "any channel"
	MinValue int
}

// Resolver matches decoded Messages against a binding table and applies
// the configured velocity gate before firing an action.
type Resolver struct {
	bindings          []Binding
	velocityThreshold int
}

// NewResolver builds a Resolver from a binding set and the minimum
// velocity/CC value a message must carry to be considered intentional
// rather than controller noise.
func NewResolver(bindings []Binding, velocityThreshold int) *Resolver {
	return &Resolver{bindings: bindings, velocityThreshold: velocityThreshold}
}

// Resolve returns the action name bound to msg, or ok=false if no binding
// matches or the message fails the velocity/value gate.
func (r *Resolver) Resolve(msg Message) (action string, ok bool) {
	if msg.Value < r.velocityThreshold {
		return "", false
	}
	for _, b := range r.bindings {
		if b.Type != msg.Type || b.Number != msg.Number {
			continue
		}
		if b.Channel >= 0 && b.Channel != msg.Channel {
			continue
		}
		if msg.Value < b.MinValue {
			continue
		}
		return b.Action, true
	}
	return "", false
}
