package dispatcher

import "time"

// SetNowFunc overrides the dispatcher clock in tests.
func (d *Dispatcher) SetNowFunc(now func() time.Time) {
	d.now = now
}

// SetTaskIDFunc overrides task id generation in tests.
func (d *Dispatcher) SetTaskIDFunc(gen func() string) {
	d.newTaskID = gen
}
