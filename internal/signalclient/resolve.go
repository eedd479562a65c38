package signalclient

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
)

// fallbackResolvers are queried directly when the system resolver fails.
var fallbackResolvers = []string{
	"1.1.1.1",        // Cloudflare
	"1.0.0.1",        // Cloudflare
	"8.8.8.8",        // Google
	"8.8.4.4",        // Google
	"9.9.9.9",        // Quad9
	"208.67.222.222", // Cisco OpenDNS
}

// resolveHost returns one address for host, preferring IPv4. IP literals are
// returned as is. The system resolver is tried first, then the fallback
// resolvers are raced.
func resolveHost(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return host, nil
	}

	localCtx, cancel := context.WithTimeout(ctx, time.Second)
	ip, err := lookupWith(localCtx, &net.Resolver{}, host)
	cancel()
	if err == nil {
		return ip, nil
	}

	return raceResolvers(ctx, host, fallbackResolvers)
}

func raceResolvers(ctx context.Context, host string, servers []string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	results := make(chan result, len(servers))
	for _, server := range servers {
		go func(server string) {
			ip, err := lookupWith(ctx, resolverFor(server), host)
			results <- result{ip: ip, err: err}
		}(server)
	}

	for range servers {
		select {
		case res := <-results:
			if res.err == nil {
				return res.ip, nil
			}
		case <-ctx.Done():
			return "", errors.Errorf("resolve %s: timed out", host)
		}
	}
	return "", errors.Errorf("resolve %s: all %d resolvers failed", host, len(servers))
}

func resolverFor(server string) *net.Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(server, "53"))
		},
	}
}

func lookupWith(ctx context.Context, r *net.Resolver, host string) (string, error) {
	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errors.Errorf("no addresses for %s", host)
	}
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}

// dialResolved dials addr after resolving its host with resolveHost.
func dialResolved(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ip, err := resolveHost(ctx, host)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	return d.DialContext(ctx, network, net.JoinHostPort(ip, port))
}
