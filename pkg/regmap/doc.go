// Package regmap holds the register map of the simulated bring-up subsystem.
//
// The map is described in regmap.yaml and compiled to Go constants by
// cmd/regmap-gen; regmap_gen.go must not be edited by hand. The schema types
// and loader in this package are shared by the generator and by tools that
// accept an alternative map at run time.
//
// Register names are addressed as BLOCK.REGISTER, fields as
// BLOCK.REGISTER.FIELD:
//
//	reg, ok := regmap.Lookup("LC_CTRL.STATUS")
//	ready := regmap.LcCtrlStatusReady.IsSet(port.ReadRegister(reg.Addr))
package regmap

//go:generate go run ../../cmd/regmap-gen -input regmap.yaml -output regmap_gen.go
