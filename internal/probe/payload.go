package probe

import (
	"encoding/hex"
	"fmt"

	"github.com/gosnmp/gosnmp"
	"github.com/miekg/dns"

	"github.com/anstrom/scanviz/internal/errors"
)

const (
	portDNS  = 53
	portSNMP = 161

	dnsQueryName  = "example.com."
	dnsQueryID    = 0x5356
	snmpCommunity = "public"
	// sysDescr.0
	snmpOID = ".1.3.6.1.2.1.1.1.0"
)

// Payload is the datagram body a UDP scan sends to a port. Services that
// only answer well-formed requests get a protocol-specific probe; every
// other port gets an empty datagram.
type Payload struct {
	Port    int    `json:"port"`
	Service string `json:"service"`
	Summary string `json:"summary"`
	Bytes   []byte `json:"bytes"`
}

// Hex returns a hex dump of the payload.
func (p Payload) Hex() string {
	if len(p.Bytes) == 0 {
		return ""
	}
	return hex.Dump(p.Bytes)
}

// UDPPayload encodes the probe for port.
func UDPPayload(port int) (Payload, error) {
	switch port {
	case portDNS:
		return dnsPayload()
	case portSNMP:
		return snmpPayload()
	default:
		return Payload{Port: port, Service: "unknown", Summary: "empty datagram"}, nil
	}
}

func dnsPayload() (Payload, error) {
	m := new(dns.Msg)
	m.SetQuestion(dnsQueryName, dns.TypeA)
	m.Id = dnsQueryID
	m.RecursionDesired = true

	b, err := m.Pack()
	if err != nil {
		return Payload{}, errors.WrapPlaybackError(errors.CodeUnknown, "failed to encode DNS probe", err)
	}
	return Payload{
		Port:    portDNS,
		Service: "domain",
		Summary: fmt.Sprintf("DNS query %s A", dnsQueryName),
		Bytes:   b,
	}, nil
}

func snmpPayload() (Payload, error) {
	packet := &gosnmp.SnmpPacket{
		Version:   gosnmp.Version2c,
		Community: snmpCommunity,
		PDUType:   gosnmp.GetRequest,
		RequestID: 1,
		Variables: []gosnmp.SnmpPDU{{Name: snmpOID, Type: gosnmp.Null}},
	}

	b, err := packet.MarshalMsg()
	if err != nil {
		return Payload{}, errors.WrapPlaybackError(errors.CodeUnknown, "failed to encode SNMP probe", err)
	}
	return Payload{
		Port:    portSNMP,
		Service: "snmp",
		Summary: fmt.Sprintf("SNMPv2c GetRequest %s community %q", snmpOID, snmpCommunity),
		Bytes:   b,
	}, nil
}
