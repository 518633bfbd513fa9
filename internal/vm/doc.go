// Package vm implements the VM lifecycle on top of the vmdir state store:
// creating VMs, supervising a running guest, stopping it with escalation,
// and listing what exists.
package vm
