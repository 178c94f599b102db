// Package stream pushes word sequences into a device-side FIFO gated by a
// fullness flag.
//
// # Backpressure
//
// Before every element the Channel reads the FIFO status register. While the
// full flag is set it waits (bounded by the per-element budget) and reads
// again. The element is written to the data port only once the FIFO has
// room. Elements are never reordered, skipped or retried: if the budget of
// one element runs out the rest of the job is abandoned and the returned
// *TransferError tells how many elements were accepted.
//
// # Recovery Interface
//
// Recovery wraps the streaming-boot flow of a recovery interface: wait for
// recovery mode, enable bypass, verify the protocol capability magic,
// program the indirect FIFO, stream the image through a Channel, activate
// it and wait for the recovery status to report success.
package stream
