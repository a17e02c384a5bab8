package config

import (
	"strings"
	"testing"
)

func validConfig() FileConfig {
	cfg := FileConfig{}
	cfg.KeyStore.Path = "/etc/as2/keystore.p12"
	cfg.Server.ListenAddr = ":8080"
	return ApplyDefaults(cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func() FileConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:    "defaulted valid config",
			cfg:     validConfig,
			wantErr: false,
		},
		{
			name: "missing keystore path",
			cfg: func() FileConfig {
				cfg := validConfig()
				cfg.KeyStore.Path = ""
				return cfg
			},
			wantErr: true,
			errMsg:  "keystore.path",
		},
		{
			name: "invalid connect timeout",
			cfg: func() FileConfig {
				cfg := validConfig()
				cfg.Send.ConnectTimeout = "not-a-duration"
				return cfg
			},
			wantErr: true,
			errMsg:  "connect_timeout",
		},
		{
			name: "zero read timeout",
			cfg: func() FileConfig {
				cfg := validConfig()
				cfg.Send.ReadTimeout = "0s"
				return cfg
			},
			wantErr: true,
			errMsg:  "must be positive",
		},
		{
			name: "unknown transport profile",
			cfg: func() FileConfig {
				cfg := validConfig()
				cfg.Send.TransportProfiles = []string{"peppol-transport-as2-v3_0"}
				return cfg
			},
			wantErr: true,
			errMsg:  "unknown transport profile",
		},
		{
			name: "unsupported content transfer encoding",
			cfg: func() FileConfig {
				cfg := validConfig()
				cfg.Send.ContentTransferEncoding = "quoted-printable"
				return cfg
			},
			wantErr: true,
			errMsg:  "unsupported encoding",
		},
		{
			name: "save changes without keystore path",
			cfg: func() FileConfig {
				cfg := validConfig()
				cfg.KeyStore.Path = ""
				cfg.KeyStore.SaveKeyStoreChangesToFile = true
				return cfg
			},
			wantErr: true,
			errMsg:  "save_keystore_changes_to_file",
		},
		{
			name: "revocation check without trust bundle",
			cfg: func() FileConfig {
				cfg := validConfig()
				cfg.Trust.CheckRevocation = true
				return cfg
			},
			wantErr: true,
			errMsg:  "check_revocation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(tt.cfg())
			if tt.wantErr && len(issues) == 0 {
				t.Fatalf("expected validation issues, got none")
			}
			if !tt.wantErr && len(issues) != 0 {
				t.Fatalf("expected no issues, got %v", issues)
			}
			if tt.wantErr {
				found := false
				for _, issue := range issues {
					if strings.Contains(issue.String(), tt.errMsg) {
						found = true
						break
					}
				}
				if !found {
					t.Fatalf("expected an issue containing %q, got %v", tt.errMsg, issues)
				}
			}
		})
	}
}

func TestValidateServer_RequiresListenAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ListenAddr = ""

	issues := ValidateServer(cfg)
	found := false
	for _, issue := range issues {
		if strings.Contains(issue.String(), "listen_addr") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a listen_addr issue, got %v", issues)
	}
}
