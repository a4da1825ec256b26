// Package discovery finds SCPI-capable instruments on the local network.
// LXI-class signal generators advertise a raw-socket SCPI service over mDNS,
// which saves operators from hard-coding bench IP addresses.
package discovery

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// scpiService is the DNS-SD service type LXI instruments advertise for raw
// socket SCPI (conventionally port 5025).
const scpiService = "_scpi-raw._tcp"

// Instrument is one discovered SCPI endpoint.
type Instrument struct {
	Instance  string // advertised name, e.g. "Keysight E8257D"
	Hostname  string // DNS hostname, e.g. "a-e8257d-00123.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// Addr returns a host:port string usable as a SCPI client address, or ""
// when the instrument advertised no address.
func (in Instrument) Addr() string {
	if len(in.Addresses) == 0 {
		return ""
	}
	return net.JoinHostPort(in.Addresses[0].String(), fmt.Sprint(in.Port))
}

// Discover performs a blocking mDNS browse for SCPI raw-socket services and
// returns deduplicated instrument entries sorted by hostname.
func Discover(timeout time.Duration) ([]Instrument, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(map[string]Instrument)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				if e == nil {
					continue
				}
				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)

				key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
				found[key] = Instrument{
					Instance:  cleanInstance(e.Instance),
					Hostname:  e.HostName,
					Addresses: addrs,
					Port:      e.Port,
					TXT:       append([]string{}, e.Text...),
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, scpiService, "local.", entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}

	<-done

	out := make([]Instrument, 0, len(found))
	for _, in := range found {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hostname < out[j].Hostname })
	return out, nil
}

// cleanInstance removes zeroconf escape sequences: "\ " => " ".
func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
