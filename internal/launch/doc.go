// Package launch starts an ordered batch of targets one after another with a
// fixed delay between launch starts. A Scheduler owns the timing, a Launcher
// turns each request into an Executor call on a Dispatcher, and callers observe
// the batch through the Handle returned by Schedule.
package launch
