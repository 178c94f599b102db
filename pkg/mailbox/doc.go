// Package mailbox runs command/response transactions through a hardware
// mailbox.
//
// A transaction locks the mailbox (reading the lock register acquires it
// when free), writes the command, data length and payload, sets execute,
// polls the status field until the device reports a result and finally
// clears execute. Execute is cleared on every path once the lock was taken,
// so a failed or timed-out command never leaves the mailbox wedged.
//
// Bit 30 of the command register is the response-required flag and is part
// of the command word. Transaction.ResponseRequired only sets it, so commands
// whose code already has bit 30 set (FWLD is one) cannot ask for no
// response.
//
// Whether clearing execute also gives up the lock depends on the mailbox
// implementation; LockRelease selects between relying on that and writing
// the lock register explicitly.
package mailbox
