package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeBridgeTXT creates TXT records for a bridge advertisement.
func EncodeBridgeTXT(info *BridgeInfo) TXTRecordMap {
	txt := TXTRecordMap{TXTKeyModel: info.Model}
	if info.SessionID != "" {
		txt[TXTKeySession] = info.SessionID
	}
	if info.Version != 0 {
		txt[TXTKeyVersion] = strconv.FormatUint(uint64(info.Version), 10)
	}
	return txt
}

// DecodeBridgeTXT parses bridge TXT records. Unknown keys are ignored.
func DecodeBridgeTXT(txt TXTRecordMap) (*BridgeInfo, error) {
	model, ok := txt[TXTKeyModel]
	if !ok || model == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyModel)
	}
	info := &BridgeInfo{Model: model, SessionID: txt[TXTKeySession]}

	if v, ok := txt[TXTKeyVersion]; ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", TXTKeyVersion, v)
		}
		info.Version = uint32(n)
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

// DefaultInstanceName derives an instance name from a host name.
func DefaultInstanceName(host string) string {
	host, _, _ = strings.Cut(host, ".")
	if host == "" {
		host = "bridge"
	}
	name := "regbridge-" + host
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

func joinHostPort(host string, port uint16) string {
	return net.JoinHostPort(strings.TrimSuffix(host, "."), strconv.Itoa(int(port)))
}
