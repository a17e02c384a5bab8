package config

// Defaults applied when a FileConfig field is left unset.
const (
	DefaultConnectTimeout          = "30s"
	DefaultReadTimeout             = "60s"
	DefaultContentTransferEncoding = "binary"
	DefaultMimeType                = "application/xml"
	DefaultServerListenAddr        = ":8080"
)

// DefaultTransportProfiles is the endpoint-selection preference order used
// when Send.TransportProfiles is empty.
var DefaultTransportProfiles = []string{"peppol-transport-as2-v2_0", "peppol-transport-as2-v1_0"}

// ApplyDefaults is the pure derivation step over FileConfig: it returns a
// new value with every unset field filled from its documented default,
// without mutating cfg (mirrors pkg/as2client.applyDefaults's pure-function
// shape rather than a mutating-pointer pass).
func ApplyDefaults(cfg FileConfig) FileConfig {
	if cfg.Send.ConnectTimeout == "" {
		cfg.Send.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Send.ReadTimeout == "" {
		cfg.Send.ReadTimeout = DefaultReadTimeout
	}
	if len(cfg.Send.TransportProfiles) == 0 {
		cfg.Send.TransportProfiles = append([]string(nil), DefaultTransportProfiles...)
	}
	if cfg.Send.ContentTransferEncoding == "" {
		cfg.Send.ContentTransferEncoding = DefaultContentTransferEncoding
	}
	if cfg.Send.MimeType == "" {
		cfg.Send.MimeType = DefaultMimeType
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultServerListenAddr
	}
	return cfg
}
