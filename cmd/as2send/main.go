// Command as2send is a thin example harness around pkg/as2client: it loads
// process configuration, builds a Config for one send, and reports the
// MDN outcome. A real deployment wires its own participant/document-type
// identifiers and key-store loader in place of the flags below.
package main

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sufield/peppol-as2/internal/config"
	"github.com/sufield/peppol-as2/internal/obs"
	"github.com/sufield/peppol-as2/pkg/as2client"
	"github.com/sufield/peppol-as2/pkg/peppolid"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information and exit")
	configPath := flag.String("config", "examples/as2send.yaml", "Path to as2send config file")
	documentPath := flag.String("document", "", "Path to the business document XML file to send")
	senderID := flag.String("sender-id", "", "Sender AS2 identifier")
	receiverID := flag.String("receiver-id", "", "Receiver AS2 identifier")
	receiverURL := flag.String("receiver-url", "", "Receiver AS2 endpoint URL")
	receiverCertPath := flag.String("receiver-cert", "", "Path to the receiver's PEM-encoded certificate")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("as2send %s (commit %s)\n", version, commit)
		os.Exit(0)
	}
	if *debug {
		_ = os.Setenv("AS2_DEBUG", "1")
	}
	obs.Init()
	obs.InitLogger()

	os.Exit(run(*configPath, *documentPath, *senderID, *receiverID, *receiverURL, *receiverCertPath))
}

func run(configPath, documentPath, senderID, receiverID, receiverURL, receiverCertPath string) int {
	fileCfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}
	fileCfg = config.ApplyDefaults(fileCfg)
	if issues := config.Validate(fileCfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Printf("config error: %s", issue)
		}
		return 1
	}

	documentBytes, err := os.ReadFile(documentPath)
	if err != nil {
		log.Printf("failed to read document %s: %v", documentPath, err)
		return 1
	}

	receiverCert, err := loadPEMCertificate(receiverCertPath)
	if err != nil {
		log.Printf("failed to load receiver certificate: %v", err)
		return 1
	}

	connectTimeout, _ := time.ParseDuration(fileCfg.Send.ConnectTimeout)
	readTimeout, _ := time.ParseDuration(fileCfg.Send.ReadTimeout)

	cfg := as2client.Config{
		KeyStoreFile:              fileCfg.KeyStore.Path,
		KeyStorePassword:          fileCfg.KeyStore.Password,
		SaveKeyStoreChangesToFile: fileCfg.KeyStore.SaveKeyStoreChangesToFile,

		SenderAS2ID:         senderID,
		ReceiverAS2ID:       receiverID,
		ReceiverURL:         receiverURL,
		ReceiverCertificate: receiverCert,

		ConnectTimeout: connectTimeout,
		ReadTimeout:    readTimeout,

		ContentTransferEncoding: fileCfg.Send.ContentTransferEncoding,
		MimeType:                fileCfg.Send.MimeType,
		UseDataHandler:          fileCfg.Send.UseDataHandler,

		SenderPeppolID:   peppolid.NewDefaultParticipantIdentifier(senderID),
		ReceiverPeppolID: peppolid.NewDefaultParticipantIdentifier(receiverID),

		BusinessDocumentBytes: documentBytes,
	}

	b := as2client.New(cfg)
	resp, err := b.SendSynchronous(context.Background())
	if err != nil {
		log.Printf("send failed: %v", err)
		return 1
	}

	log.Printf("MDN disposition: %s (status %d, MIC matched: %v, signature verified: %v)",
		resp.MDN.Disposition, resp.StatusCode, resp.MICMatched, resp.SignatureVerified)
	return 0
}

func loadPEMCertificate(path string) (*x509.Certificate, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s does not contain a PEM block", path)
	}
	return x509.ParseCertificate(block.Bytes)
}
