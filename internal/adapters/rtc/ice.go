package rtc

import (
	"github.com/dkeye/FamilyShare/internal/config"
	"github.com/pion/webrtc/v4"
)

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// Configuration builds the peer configuration handed to clients.
// Falls back to the public STUN server when nothing is configured.
func Configuration(cfg config.WebRTCConfig) webrtc.Configuration {
	if len(cfg.ICEServers) == 0 {
		return DefaultWebRTCConfig()
	}
	servers := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
	for _, s := range cfg.ICEServers {
		if len(s.URLs) == 0 {
			continue
		}
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
		}
		servers = append(servers, srv)
	}
	return webrtc.Configuration{ICEServers: servers}
}
