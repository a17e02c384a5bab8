// Command as2serve is a thin example harness around pkg/as2server: it loads
// process configuration, registers one inbound handler that logs the
// received document and accepts everything, and listens for AS2 POSTs. A
// real deployment registers a handler per (docType, process) that routes
// into its own document pipeline instead.
package main

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sufield/peppol-as2/internal/config"
	"github.com/sufield/peppol-as2/internal/obs"
	"github.com/sufield/peppol-as2/pkg/as2server"
	"github.com/sufield/peppol-as2/pkg/peppolid"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information and exit")
	configPath := flag.String("config", "examples/as2serve.yaml", "Path to as2serve config file")
	receiverID := flag.String("receiver-id", "", "This server's AS2 identifier")
	receiverCertPath := flag.String("receiver-cert", "", "Path to this server's PEM-encoded certificate")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("as2serve %s (commit %s)\n", version, commit)
		os.Exit(0)
	}
	if *debug {
		_ = os.Setenv("AS2_DEBUG", "1")
	}
	obs.Init()
	obs.InitLogger()

	os.Exit(run(*configPath, *receiverID, *receiverCertPath))
}

func run(configPath, receiverID, receiverCertPath string) int {
	fileCfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}
	fileCfg = config.ApplyDefaults(fileCfg)
	if issues := config.ValidateServer(fileCfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Printf("config error: %s", issue)
		}
		return 1
	}

	receiverCert, err := loadPEMCertificate(receiverCertPath)
	if err != nil {
		log.Printf("failed to load receiver certificate: %v", err)
		return 1
	}

	srv := as2server.New(as2server.Config{
		Receiver: as2server.ReceiverIdentity{AS2ID: receiverID, Certificate: receiverCert},
	})

	srv.RegisterHandler(
		peppolid.NewDefaultDocumentTypeIdentifier("invoice"),
		peppolid.NewDefaultProcessIdentifier("process"),
		as2server.HandlerFunc(func(ctx context.Context, msg as2server.InboundMessage) as2server.Disposition {
			log.Printf("received %s from %s (message-id %s)", msg.Document.Type, msg.AS2From, msg.MessageID)
			return as2server.Accept()
		}),
	)

	httpServer := &http.Server{Addr: fileCfg.Server.ListenAddr, Handler: srv.Router()}

	go func() {
		log.Printf("as2serve listening on %s", fileCfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("shutting down")
	if err := httpServer.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown error: %v", err)
		return 1
	}
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
