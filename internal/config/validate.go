package config

import (
	"fmt"
	"strings"
	"time"
)

// Issue names one configuration field that failed validation.
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string { return fmt.Sprintf("%s: %s", i.Field, i.Message) }

var validTransportProfiles = map[string]bool{
	"peppol-transport-as2-v1_0": true,
	"peppol-transport-as2-v2_0": true,
}

var validContentTransferEncodings = map[string]bool{
	"binary": true,
	"base64": true,
	"7bit":   true,
	"8bit":   true,
}

// Validate checks a defaults-applied FileConfig and returns every issue
// found; an empty slice means cfg is usable as-is.
func Validate(cfg FileConfig) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.KeyStore.Path) == "" {
		issues = append(issues, Issue{"keystore.path", "must be set"})
	}

	issues = append(issues, validateDuration("send.connect_timeout", cfg.Send.ConnectTimeout)...)
	issues = append(issues, validateDuration("send.read_timeout", cfg.Send.ReadTimeout)...)

	for _, profile := range cfg.Send.TransportProfiles {
		if !validTransportProfiles[profile] {
			issues = append(issues, Issue{"send.transport_profiles", fmt.Sprintf("unknown transport profile %q", profile)})
		}
	}

	if !validContentTransferEncodings[cfg.Send.ContentTransferEncoding] {
		issues = append(issues, Issue{"send.content_transfer_encoding", fmt.Sprintf("unsupported encoding %q", cfg.Send.ContentTransferEncoding)})
	}
	if strings.TrimSpace(cfg.Send.MimeType) == "" {
		issues = append(issues, Issue{"send.mime_type", "must be set"})
	}

	if cfg.KeyStore.SaveKeyStoreChangesToFile && strings.TrimSpace(cfg.KeyStore.Path) == "" {
		issues = append(issues, Issue{"keystore.save_keystore_changes_to_file", "requires keystore.path to be set"})
	}

	if strings.TrimSpace(cfg.Trust.CABundlePath) == "" && cfg.Trust.CheckRevocation {
		issues = append(issues, Issue{"trust.check_revocation", "requires trust.ca_bundle_path to be set"})
	}

	return issues
}

// ValidateServer additionally requires a listen address, for as2serve.
func ValidateServer(cfg FileConfig) []Issue {
	issues := Validate(cfg)
	if strings.TrimSpace(cfg.Server.ListenAddr) == "" {
		issues = append(issues, Issue{"server.listen_addr", "must be set"})
	}
	return issues
}

func validateDuration(field, value string) []Issue {
	if strings.TrimSpace(value) == "" {
		return []Issue{{field, "must be set"}}
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return []Issue{{field, fmt.Sprintf("invalid duration %q: %v", value, err)}}
	}
	if d <= 0 {
		return []Issue{{field, "must be positive"}}
	}
	return nil
}
