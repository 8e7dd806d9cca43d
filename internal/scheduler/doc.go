// Package scheduler multiplexes many logical alarms onto the single alarm
// register of an RTC peripheral.
//
// The Scheduler keeps a fixed-capacity registry of alarms addressed by stable
// slot handles and, after every mutation, points the peripheral at the soonest
// pending alarm. When the peripheral raises its interrupt the dispatcher fires
// every alarm due at the matched epoch in ascending slot order, disables
// one-shot alarms, moves recurring ones forward by their interval (counted from
// the matched epoch, not from the time of dispatch) and re-arms the peripheral.
//
// The interrupt carries no context pointer, so exactly one Scheduler per
// process is bound as its target (see Enable). The interrupt handler only
// latches the epoch the peripheral matched and records that activation was
// requested; the registry walk, the callbacks and the re-arm happen in Run or
// HandlePending, outside interrupt context. Alarms that came due while the
// dispatch was pending are fired by the same pass.
package scheduler
