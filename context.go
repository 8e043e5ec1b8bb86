package exm

// Context is the machine's extended state: a persistent map from symbolic
// keys to arbitrary values, threaded through entry/exit/transition actions.
// Every mutating method returns a new Context; the receiver is left intact.
//
// Two keys are reserved by the engine and must not be read or written
// directly by callers: paramsKey carries the parameters of the event
// currently being processed, and queueKey carries events raised via
// RaiseEvent that are still pending delivery to the interpreter.
type Context map[string]any

const (
	paramsKey = "exm_params"
	queueKey  = "exm_queue"
)

// NewContext returns an empty Context.
func NewContext() Context {
	return Context{}
}

func (c Context) clone() Context {
	next := make(Context, len(c)+1)
	for k, v := range c {
		next[k] = v
	}
	return next
}

// Put returns a new Context with key set to value.
func (c Context) Put(key string, value any) Context {
	next := c.clone()
	next[key] = value
	return next
}

// Get returns the value stored at key, or def if key is absent.
func (c Context) Get(key string, def any) any {
	if v, ok := c[key]; ok {
		return v
	}
	return def
}

// Delete returns a new Context with key removed. A no-op clone is avoided
// when the key is already absent.
func (c Context) Delete(key string) Context {
	if _, ok := c[key]; !ok {
		return c
	}
	next := c.clone()
	delete(next, key)
	return next
}

// PutParams writes the reserved params slot. Guards and actions read it back
// via GetParams while the event that carries it is being processed.
func (c Context) PutParams(params any) Context {
	return c.Put(paramsKey, params)
}

// GetParams reads the reserved params slot, or nil if unset.
func (c Context) GetParams() any {
	return c.Get(paramsKey, nil)
}

// DeleteParams clears the reserved params slot.
func (c Context) DeleteParams() Context {
	return c.Delete(paramsKey)
}

// RaiseEvent appends event to the reserved internal queue (FIFO). The
// interpreter drains this queue at the end of every microstep.
func (c Context) RaiseEvent(event Event) Context {
	next := c.clone()
	next[queueKey] = append(append([]Event{}, c.queue()...), event)
	return next
}

func (c Context) queue() []Event {
	q, _ := c[queueKey].([]Event)
	return q
}

func (c Context) clearQueue() Context {
	return c.Delete(queueKey)
}
