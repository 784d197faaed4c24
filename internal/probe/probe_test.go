package probe

import (
	"context"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanviz/internal/errors"
	"github.com/anstrom/scanviz/internal/scenario"
)

func TestNmapCommand(t *testing.T) {
	tests := []struct {
		id   scenario.ScanType
		flag string
		root bool
	}{
		{scenario.ScanTCPConnect, "-sT", false},
		{scenario.ScanTCPSYN, "-sS", true},
		{scenario.ScanFIN, "-sF", true},
		{scenario.ScanNULL, "-sN", true},
		{scenario.ScanXmas, "-sX", true},
		{scenario.ScanUDP, "-sU", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			cmd, err := NmapCommand(context.Background(), tt.id, "", 443)
			require.NoError(t, err)

			assert.Contains(t, cmd.Args, tt.flag)
			assert.Contains(t, cmd.Args, "443")
			assert.Contains(t, cmd.Args, DefaultTarget)
			assert.Contains(t, cmd.Args, "-Pn")
			assert.Equal(t, tt.root, cmd.RequiresRoot)
			assert.Contains(t, cmd.String(), "nmap ")
		})
	}
}

func TestNmapCommandCoercesPort(t *testing.T) {
	cmd, err := NmapCommand(context.Background(), scenario.ScanTCPConnect, "10.0.0.1", 0)
	require.NoError(t, err)
	assert.Contains(t, cmd.Args, "80")
	assert.Contains(t, cmd.Args, "10.0.0.1")
	assert.NotContains(t, cmd.String(), "sudo")
}

func TestNmapCommandUnknownScan(t *testing.T) {
	_, err := NmapCommand(context.Background(), "maimon", "", 80)
	assert.True(t, errors.IsCode(err, errors.CodeUnknownScanType))
}

func TestUDPPayloadDNS(t *testing.T) {
	p, err := UDPPayload(53)
	require.NoError(t, err)
	assert.Equal(t, "domain", p.Service)
	require.NotEmpty(t, p.Bytes)

	var m dns.Msg
	require.NoError(t, m.Unpack(p.Bytes))
	assert.Equal(t, uint16(dnsQueryID), m.Id)
	require.Len(t, m.Question, 1)
	assert.Equal(t, dnsQueryName, m.Question[0].Name)
	assert.Equal(t, dns.TypeA, m.Question[0].Qtype)
	assert.NotEmpty(t, p.Hex())
}

func TestUDPPayloadSNMP(t *testing.T) {
	p, err := UDPPayload(161)
	require.NoError(t, err)
	assert.Equal(t, "snmp", p.Service)
	require.NotEmpty(t, p.Bytes)
	// BER SEQUENCE
	assert.Equal(t, byte(0x30), p.Bytes[0])
	assert.Contains(t, string(p.Bytes), snmpCommunity)
}

func TestUDPPayloadOtherPorts(t *testing.T) {
	p, err := UDPPayload(9999)
	require.NoError(t, err)
	assert.Empty(t, p.Bytes)
	assert.Empty(t, p.Hex())
	assert.Equal(t, 9999, p.Port)
}
