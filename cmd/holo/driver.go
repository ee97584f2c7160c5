package main

// frameDriver is the display-refresh scheduler. At most one frame callback
// is pending; the main loop runs it once per swap.
type frameDriver struct {
	next func()
}

// RequestFrame replaces any pending callback with fn.
func (d *frameDriver) RequestFrame(fn func()) {
	d.next = fn
}

func (d *frameDriver) pending() bool {
	return d.next != nil
}

// run executes the pending callback, if any. A callback may request the
// next frame; that request waits for the following call.
func (d *frameDriver) run() bool {
	fn := d.next
	if fn == nil {
		return false
	}
	d.next = nil
	fn()
	return true
}
