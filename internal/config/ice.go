package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
)

// WebRTCICEServers converts the configured list into the shape browsers and
// pion expect, rejecting URLs that don't parse and TURN entries without
// credentials. The relay itself never uses them; they are handed to clients.
func (c *Config) WebRTCICEServers() ([]webrtc.ICEServer, error) {
	out := make([]webrtc.ICEServer, 0, len(c.ICEServers))
	for i, s := range c.ICEServers {
		server, err := s.toWebRTC()
		if err != nil {
			return nil, fmt.Errorf("ice_servers[%d]: %w", i, err)
		}
		out = append(out, server)
	}
	return out, nil
}

func (s ICEServer) toWebRTC() (webrtc.ICEServer, error) {
	if len(s.URLs) == 0 {
		return webrtc.ICEServer{}, errors.New("missing urls")
	}
	needsCreds := false
	urls := make([]string, 0, len(s.URLs))
	for _, raw := range s.URLs {
		raw = strings.TrimSpace(raw)
		uri, err := stun.ParseURI(raw)
		if err != nil {
			return webrtc.ICEServer{}, fmt.Errorf("url %q: %w", raw, err)
		}
		if uri.Scheme == stun.SchemeTypeTURN || uri.Scheme == stun.SchemeTypeTURNS {
			needsCreds = true
		}
		urls = append(urls, raw)
	}
	if needsCreds && (strings.TrimSpace(s.Username) == "" || strings.TrimSpace(s.Credential) == "") {
		return webrtc.ICEServer{}, errors.New("turn urls require username and credential")
	}

	server := webrtc.ICEServer{URLs: urls, Username: s.Username}
	if s.Credential != "" {
		server.Credential = s.Credential
	}
	return server, nil
}
