package as2client

import (
	"time"

	"github.com/sufield/peppol-as2/pkg/as2transport"
	"github.com/sufield/peppol-as2/pkg/peppolid"
)

const (
	defaultAS2Subject              = "Peppol AS2 message"
	defaultMessageIDFormat         = "OpenPEPPOL-$date.ddMMyyyyHHmmssZ$-$rand.1234$@$msg.sender.as2_id$_$msg.receiver.as2_id$"
	defaultConnectTimeout          = 30 * time.Second
	defaultReadTimeout             = 60 * time.Second
	defaultContentTransferEncoding = "binary"
	defaultMimeType                = "application/xml"
)

// applyDefaults is a single pure derivation step, used in place of a
// subclass-override hook: it returns a new Config with every unset
// optional field filled from its documented default, without mutating
// cfg.
func applyDefaults(cfg Config) Config {
	if cfg.AS2Subject == "" {
		cfg.AS2Subject = defaultAS2Subject
	}
	if cfg.SenderKeyAlias == "" {
		// If unset, the sender's key alias defaults to its AS2 id.
		cfg.SenderKeyAlias = cfg.SenderAS2ID
	}
	if cfg.ReceiverKeyAlias == "" {
		// If unset, the receiver's key alias defaults to its AS2 id.
		cfg.ReceiverKeyAlias = cfg.ReceiverAS2ID
	}
	if cfg.MessageIDFormat == "" {
		cfg.MessageIDFormat = defaultMessageIDFormat
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.ContentTransferEncoding == "" {
		cfg.ContentTransferEncoding = defaultContentTransferEncoding
	}
	if cfg.MimeType == "" {
		cfg.MimeType = defaultMimeType
	}
	if cfg.TransportProfilePreference == nil {
		cfg.TransportProfilePreference = peppolid.DefaultTransportProfileOrder()
	}
	if cfg.TransportFactory == nil {
		cfg.TransportFactory = func(settings as2transport.Settings) Transport {
			return as2transport.NewTransport(settings)
		}
	}
	return cfg
}
