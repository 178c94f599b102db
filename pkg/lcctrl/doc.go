// Package lcctrl drives lifecycle-state transitions through the device's
// lifecycle controller.
//
// # Transition Protocol
//
// A transition is a fixed register sequence guarded by the claim-register
// mutex (see package regmutex):
//
//  1. Acquire the claim.
//  2. Write the packed target state (Pack) to the target register.
//  3. Optionally write the 128-bit token as four words, most significant
//     word first, all to the same token register.
//  4. Write 1 to the command register.
//  5. Poll the status register until a result bit is set.
//  6. Release the claim, whatever the result.
//
// The result is reported as an Outcome. Outcomes other than OutcomeSuccess
// come back together with an error (Outcome.Err) so callers can use either.
//
// # Controller Bring-up
//
// WaitReady performs the one-time handshake before the first transition:
// an optional fuse-write-done handshake, then waiting for the ready and
// initialized status bits.
//
// # Tokens
//
// Tokens are written in clear. The value provisioned into OTP for a raw
// unlock is its cSHAKE128 hash (HashToken).
package lcctrl
