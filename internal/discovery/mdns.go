// ABOUTME: mDNS advertisement of the scope streaming server
// ABOUTME: Announces _wavetap._tcp so visualizers can find us
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type visualizers browse for.
const ServiceType = "_wavetap._tcp"

// Config holds advertisement configuration.
type Config struct {
	ServiceName string
	Port        int
}

// Advertiser announces the scope server on the local network.
type Advertiser struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAdvertiser creates an advertiser.
func NewAdvertiser(config Config) *Advertiser {
	ctx, cancel := context.WithCancel(context.Background())
	return &Advertiser{config: config, ctx: ctx, cancel: cancel}
}

// Advertise announces the service until Stop is called.
func (a *Advertiser) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		a.config.ServiceName,
		ServiceType,
		"",
		"",
		a.config.Port,
		ips,
		[]string{"path=/wavetap"},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)",
		a.config.ServiceName, a.config.Port, ServiceType)

	go func() {
		<-a.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	a.cancel()
}

// getLocalIPs returns the non-loopback IPv4 addresses of this host.
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
