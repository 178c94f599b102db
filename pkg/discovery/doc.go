// Package discovery finds register bridges with mDNS/DNS-SD.
//
// A bridge registers one instance of service type _regbridge._tcp. Its TXT
// record carries:
//
//	model=<device model>   required
//	sid=<session id>       optional, the bridge's trace session
//	pv=<version>           optional, bridge protocol version
//
// Advertiser announces a bridge; Browser streams or finds bridges, merging
// addresses seen on several interfaces into one BridgeService.
package discovery
