package fingerprint

import (
	"fmt"
	"net"
	"strings"
)

// MACAddress is a validated hardware address.
type MACAddress struct {
	address net.HardwareAddr
}

// ParseMAC accepts "aa:bb:cc:dd:ee:ff", "aa-bb-cc-dd-ee-ff" and "aabbccddeeff".
func ParseMAC(s string) (MACAddress, error) {
	if s == "" {
		return MACAddress{}, ErrEmptyMAC
	}

	normalized := strings.ReplaceAll(s, "-", ":")
	if !strings.Contains(normalized, ":") && len(normalized) == 12 {
		parts := make([]string, 0, 6)
		for i := 0; i < len(normalized); i += 2 {
			parts = append(parts, normalized[i:i+2])
		}
		normalized = strings.Join(parts, ":")
	}

	hw, err := net.ParseMAC(normalized)
	if err != nil || len(hw) != 6 {
		return MACAddress{}, &ValidationError{Field: "mac", Value: s, Err: ErrInvalidMAC}
	}
	return MACAddress{address: hw}, nil
}

// OUI returns the first three octets as "XX:XX:XX".
func (m MACAddress) OUI() string {
	if len(m.address) < 3 {
		return ""
	}
	return fmt.Sprintf("%02X:%02X:%02X", m.address[0], m.address[1], m.address[2])
}

// IsRandomized reports whether the locally administered bit is set.
// Soft APs and spoofed transmitters usually carry such addresses.
func (m MACAddress) IsRandomized() bool {
	return len(m.address) > 0 && m.address[0]&0x02 != 0
}

// IsMulticast reports whether the group bit is set.
func (m MACAddress) IsMulticast() bool {
	return len(m.address) > 0 && m.address[0]&0x01 != 0
}

// String returns the address as upper case, colon separated octets.
func (m MACAddress) String() string {
	return strings.ToUpper(m.address.String())
}

// IsValid reports whether the address was parsed.
func (m MACAddress) IsValid() bool {
	return len(m.address) > 0
}
