// Package as2server is the inbound side of the exchange: an
// HTTP endpoint that accepts a signed AS2 request, verifies its signature
// (the body is not decrypted or decompressed), extracts the SBD and its
// Peppol identifiers, dispatches to every inbound handler registered for
// its (docType, process) pair, and synchronously returns an MDN, signed
// when a receiver key is configured. Handlers are
// registered explicitly per (docType, process) pair via RegisterHandler
// rather than discovered dynamically through a service-loader mechanism.
package as2server

import (
	"context"
	"crypto"
	"crypto/x509"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/sufield/peppol-as2/pkg/as2transport"
	"github.com/sufield/peppol-as2/pkg/keystore"
	"github.com/sufield/peppol-as2/pkg/peppolid"
	"github.com/sufield/peppol-as2/pkg/sbd"
)

// InboundMessage is what an inbound Handler receives: the parsed SBD
// (including its business payload element) and the AS2-From, AS2-To and
// Message-ID header values of the request.
type InboundMessage struct {
	Document  *sbd.Document
	AS2From   string
	AS2To     string
	MessageID string
}

// Disposition is what an inbound Handler returns: whether to accept the
// message (MDN "processed") or reject it with a reason (MDN "failed").
type Disposition struct {
	Accepted bool
	Reason   string
}

// Accept is the common success Disposition.
func Accept() Disposition { return Disposition{Accepted: true} }

// Reject is the common failure Disposition, carrying a human-readable reason.
func Reject(reason string) Disposition { return Disposition{Accepted: false, Reason: reason} }

// Handler processes one inbound message for a given (docType, process) pair.
type Handler interface {
	Handle(ctx context.Context, msg InboundMessage) Disposition
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, msg InboundMessage) Disposition

func (f HandlerFunc) Handle(ctx context.Context, msg InboundMessage) Disposition { return f(ctx, msg) }

// ReceiverIdentity binds one AS2 id to the key material the server signs
// outbound MDNs with and the certificate it expects the partner to use.
type ReceiverIdentity struct {
	AS2ID       string
	Certificate *x509.Certificate
	SignerKey   crypto.Signer
}

// Config configures an inbound Server.
type Config struct {
	Receiver ReceiverIdentity

	// PartnerCertificates resolves a sender's AS2-From id to the
	// certificate its signature is checked against. A nil store skips
	// signature verification entirely — useful for local testing, never
	// for a real exchange.
	PartnerCertificates *keystore.Store

	// DefaultSigningAlgorithm is used when the inbound request's
	// Disposition-Notification-Options doesn't name one. New applies no
	// default: the zero value is as2transport.SHA1.
	DefaultSigningAlgorithm as2transport.SigningAlgorithm
}

// registrationKey is a (docType, process) pair used to route an inbound
// message to its registered Handler.
type registrationKey struct {
	docType string
	process string
}

// Server is the inbound AS2 endpoint. Build one with New, register handlers
// with RegisterHandler, then mount Router() on an http.Server. Every
// handler registered for a given (docType, process) pair is invoked, in
// registration order, for every matching inbound message.
type Server struct {
	cfg Config

	mu       sync.RWMutex
	handlers map[registrationKey][]Handler

	router chi.Router
}

// New builds a Server with no handlers registered; an unmatched (docType,
// process) pair is rejected with a "failed" MDN.
func New(cfg Config) *Server {
	s := &Server{cfg: cfg, handlers: make(map[registrationKey][]Handler)}
	s.router = s.buildRouter()
	return s
}

// RegisterHandler appends handler to the list invoked for the given
// document-type and process identifiers. Multiple handlers may be
// registered for the same pair; all of them run, in registration order,
// on every matching inbound message.
func (s *Server) RegisterHandler(docType peppolid.DocumentTypeIdentifier, process peppolid.ProcessIdentifier, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := registrationKey{docType: docType.URIEncoded(), process: process.URIEncoded()}
	s.handlers[key] = append(s.handlers[key], handler)
}

func (s *Server) lookupHandlers(docType, process peppolid.Identifier) ([]Handler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[registrationKey{docType: docType.URIEncoded(), process: process.URIEncoded()}]
	return h, ok && len(h) > 0
}

// Router returns the chi.Router mounted at the AS2 endpoint path, for
// embedding into a larger HTTP server.
func (s *Server) Router() chi.Router { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Post("/as2", s.handleAS2)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) handleAS2(w http.ResponseWriter, r *http.Request) {
	result := s.receive(r)

	mdnBytes, err := s.buildMDN(result)
	if err != nil {
		http.Error(w, fmt.Sprintf("as2server: building MDN: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "multipart/signed")
	if !result.disposition.Accepted {
		w.WriteHeader(http.StatusBadRequest)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_, _ = w.Write(mdnBytes)
}
