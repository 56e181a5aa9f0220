// Package nats reports kiosk runs to a NATS server and accepts remote stop
// commands.
//
// # Subject Hierarchy
//
//	kiosk.{node}.state     # StateChangedEvent (kiosk → server)
//	kiosk.{node}.steps     # StepFinishedEvent (kiosk → server)
//	kiosk.{node}.signals   # SignalSentEvent (kiosk → server)
//	kiosk.{node}.cancel    # CancelRequestedEvent (kiosk → server)
//	kiosk.{node}.control   # ControlMessage (server → kiosk)
//
// Messaging is fire-and-forget core NATS. The kiosk keeps running when the
// server is unreachable.
//
// # Debugging with nats CLI
//
// Follow every kiosk in the fleet:
//
//	nats sub "kiosk.>"
//
// Stop the application on one node and restore its display:
//
//	nats pub "kiosk.lobby-01.control" '{"action":"stop","reason":"maintenance"}'
package nats
