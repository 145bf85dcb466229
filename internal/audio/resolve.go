package audio

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoDevice is returned when no device satisfies the resolver filters.
// Callers must treat it as a hard startup failure; there is no fallback.
var ErrNoDevice = errors.New("audio: no matching input device")

// FindCableDevice picks the best virtual-cable input: name contains
// nameFilter (case-insensitive), at least one input channel, host API in
// the allow-set. Among matches, more input channels win; ties go to the
// lowest device index, so duplicate cable instances resolve the same way
// every run.
func FindCableDevice(devices []Device, nameFilter string, hostAPIs []string) (Device, error) {
	allowed := make(map[string]bool, len(hostAPIs))
	for _, api := range hostAPIs {
		allowed[api] = true
	}

	var matches []Device
	for _, d := range devices {
		if !containsFold(d.Name, nameFilter) {
			continue
		}
		if d.MaxInputChannels < 1 {
			continue
		}
		if !allowed[d.HostAPI] {
			continue
		}
		matches = append(matches, d)
	}

	if len(matches) == 0 {
		return Device{}, ErrNoDevice
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].MaxInputChannels != matches[j].MaxInputChannels {
			return matches[i].MaxInputChannels > matches[j].MaxInputChannels
		}
		return matches[i].Index < matches[j].Index
	})

	return matches[0], nil
}

// FindInputDevice picks the first device in catalog order whose name
// contains nameFilter (case-insensitive) and that has input channels.
func FindInputDevice(devices []Device, nameFilter string) (Device, error) {
	for _, d := range devices {
		if containsFold(d.Name, nameFilter) && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return Device{}, ErrNoDevice
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
