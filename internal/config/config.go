// Package config loads and validates the process-level configuration for
// as2send/as2serve: key-store location, default transport preferences, and
// server listen address. This is distinct from pkg/as2client.Config, which
// is per-send and typically built programmatically; FileConfig is what a
// YAML file on disk describes once at process startup.
package config

// FileConfig is the on-disk configuration shape for both the sending and
// receiving command-line entry points, sharing one file layout for both
// roles.
type FileConfig struct {
	KeyStore struct {
		// Path to the key-store file. Validate reports an empty Path as an
		// issue; no environment-variable alternative is read.
		Path                      string `yaml:"path"`
		Password                  string `yaml:"password"`
		SaveKeyStoreChangesToFile bool   `yaml:"save_keystore_changes_to_file"`
	} `yaml:"keystore"`

	Send struct {
		ConnectTimeout          string   `yaml:"connect_timeout"`
		ReadTimeout             string   `yaml:"read_timeout"`
		TransportProfiles       []string `yaml:"transport_profiles"`
		ContentTransferEncoding string   `yaml:"content_transfer_encoding"`
		MimeType                string   `yaml:"mime_type"`
		UseDataHandler          bool     `yaml:"use_data_handler"`
	} `yaml:"send"`

	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`

	Trust struct {
		CABundlePath    string `yaml:"ca_bundle_path"`
		CheckRevocation bool   `yaml:"check_revocation"`
	} `yaml:"trust"`
}
