// Package devsim simulates the bring-up registers of a subsystem.
//
// A Device models four blocks on top of a regport.MemPort, using its read
// and write hooks so every access is atomic:
//
//   - the lifecycle controller: claim register, packed target, token
//     register, start command and status, with transition rules, hashed
//     OTP tokens and a transition counter;
//   - the SoC flow status and fuse-write-done handshake that precedes
//     controller readiness;
//   - the recovery interface: capability magic, indirect FIFO with a
//     configurable depth and drain rate, image activation and status;
//   - the command mailbox: read-to-acquire lock, command, data in/out,
//     execute and status, served by a MailboxHandler.
//
// Protocol misuse that real hardware would silently mishandle (a write to
// the transition registers without the claim, a second start while a
// transition is in flight, a FIFO overflow, a mailbox write without the
// lock) increments Violations instead.
//
// With a persistence store attached, the lifecycle state and transition
// count survive restarts.
package devsim
