package homeassistant

import (
	"context"
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/sirupsen/logrus"
)

// Discover looks for a Home Assistant hub on the local network via mDNS.
// It is used when no hub URL is configured; callers fall back to the disabled
// state when nothing answers within the timeout.
func Discover(ctx context.Context, timeout time.Duration, logger *logrus.Logger) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 4)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := resolver.Browse(ctx, "_home-assistant._tcp", "local.", entries); err != nil {
		return "", fmt.Errorf("failed to browse for hub: %w", err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", fmt.Errorf("no hub found on the local network")
			}
			if entry == nil || len(entry.AddrIPv4) == 0 {
				continue
			}
			url := fmt.Sprintf("http://%s:%d", entry.AddrIPv4[0], entry.Port)
			logger.WithFields(logrus.Fields{
				"instance": entry.Instance,
				"url":      url,
			}).Info("Discovered hub via mDNS")
			return url, nil
		case <-ctx.Done():
			return "", fmt.Errorf("no hub found on the local network")
		}
	}
}
