package ubx

import "fmt"

// Message class names as used by u-blox documentation. Only classes are
// named here; summaries print IDs numerically since per-ID naming would
// drag in the whole message catalogue.
var classNames = map[byte]string{
	0x01: "NAV",
	0x02: "RXM",
	0x04: "INF",
	0x05: "ACK",
	0x06: "CFG",
	0x09: "UPD",
	0x0A: "MON",
	0x0B: "AID",
	0x0D: "TIM",
	0x10: "ESF",
	0x13: "MGA",
	0x21: "LOG",
	0x27: "SEC",
	0x28: "HNR",
	0xF0: "NMEA-STD",
	0xF1: "NMEA-PUBX",
}

// ClassName returns the short class name, or the hex value for classes not
// in the table.
func ClassName(class byte) string {
	if n, ok := classNames[class]; ok {
		return n
	}
	return fmt.Sprintf("0x%02X", class)
}
