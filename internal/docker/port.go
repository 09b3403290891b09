package docker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/moby/moby/api/types/network"
)

// Protocol is the transport protocol of a published port.
type Protocol int

const (
	TCP Protocol = iota
	UDP
)

// String returns the protocol in the form the engine expects ("tcp" or "udp").
func (p Protocol) String() string {
	switch p {
	case UDP:
		return "udp"
	default:
		return "tcp"
	}
}

// Port maps a container-internal port to a port published on the host.
type Port struct {
	Source   uint16
	Host     uint16
	Protocol Protocol
}

// engineKey returns the key the engine uses for this port in
// exposed-port sets and binding maps.
func (p Port) engineKey() network.Port {
	// Protocol.String is never empty, so the ok result is always true
	key, _ := network.PortFrom(p.Source, network.IPProtocol(p.Protocol.String()))
	return key
}

// ParsePort parses a publish flag of the form "HOST:CONTAINER[/proto]",
// e.g. "8080:80" or "5353:53/udp". The protocol defaults to tcp.
func ParsePort(spec string) (Port, error) {
	mapping, proto, found := strings.Cut(spec, "/")

	protocol := TCP
	if found {
		switch proto {
		case "tcp":
			protocol = TCP
		case "udp":
			protocol = UDP
		default:
			return Port{}, fmt.Errorf("invalid protocol %q in port %q: must be tcp or udp", proto, spec)
		}
	}

	host, source, found := strings.Cut(mapping, ":")
	if !found {
		return Port{}, fmt.Errorf("invalid port %q: expected HOST:CONTAINER[/proto]", spec)
	}

	hostPort, err := strconv.ParseUint(host, 10, 16)
	if err != nil {
		return Port{}, fmt.Errorf("invalid host port in %q: %w", spec, err)
	}

	sourcePort, err := strconv.ParseUint(source, 10, 16)
	if err != nil {
		return Port{}, fmt.Errorf("invalid container port in %q: %w", spec, err)
	}

	return Port{
		Source:   uint16(sourcePort),
		Host:     uint16(hostPort),
		Protocol: protocol,
	}, nil
}
