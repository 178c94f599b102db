// Package bootcfg holds the boot configuration and the register profile that
// tools use to wire the protocol components to a device.
//
// BootConfig is an immutable value describing which optional bring-up steps
// are enabled; tools check it with RequireMailbox and RequireStreamingBoot
// before running those protocols. A Profile adds the register addresses of every protocol and
// the polling budgets, and is usually loaded from YAML:
//
//	boot:
//	  enable_fuse_write: true
//	lifecycle:
//	  status: LC_CTRL.STATUS
//	  claim: 0x7000040c
//	budgets:
//	  lock: {attempts: 1000, timeout: 2s}
//
// Register references are either BLOCK.REGISTER names from package regmap or
// numeric addresses. Omitted sections keep the values from Default.
package bootcfg
