package domain

import "fmt"

// ParseChannel maps a raw transport path onto a known channel.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelUpflow, ChannelBroadcast:
		return Channel(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}
