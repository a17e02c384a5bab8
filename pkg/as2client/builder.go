package as2client

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/sufield/peppol-as2/pkg/as2err"
	"github.com/sufield/peppol-as2/pkg/as2transport"
	"github.com/sufield/peppol-as2/pkg/certutil"
	"github.com/sufield/peppol-as2/pkg/handlers"
	"github.com/sufield/peppol-as2/pkg/keystore"
	"github.com/sufield/peppol-as2/pkg/peppolid"
	"github.com/sufield/peppol-as2/pkg/sbd"
	"github.com/sufield/peppol-as2/pkg/smp"
	"github.com/sufield/peppol-as2/pkg/validation"
)

// State is one stage of the builder state machine: a
// builder instance is not safe for concurrent use, and steps after a
// terminal send are rejected.
type State int

const (
	StateBuilding State = iota
	StateVerifying
	StateResolving
	StateSending
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "Building"
	case StateVerifying:
		return "Verifying"
	case StateResolving:
		return "Resolving"
	case StateSending:
		return "Sending"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Builder drives exactly one send through the full pipeline. Build a new
// Builder per send; independent Builders may run concurrently on
// independent goroutines.
type Builder struct {
	cfg   Config
	state State

	messageHandler    handlers.MessageHandler
	certHandler       handlers.CertificateCheckResultHandler
	validationHandler validation.ResultHandler
}

// New builds a Builder from cfg, applying defaults and installing default
// handlers for any left unset.
func New(cfg Config) *Builder {
	cfg = applyDefaults(cfg)

	mh := cfg.MessageHandler
	if mh == nil {
		mh = handlers.NewAccumulatingMessageHandler()
	}
	ch := cfg.CertificateCheckResultHandler
	if ch == nil {
		ch = handlers.RejectOnInvalidHandler{}
	}
	vh := cfg.ValidationResultHandler
	if vh == nil {
		vh = validation.NoopResultHandler{}
	}

	return &Builder{cfg: cfg, state: StateBuilding, messageHandler: mh, certHandler: ch, validationHandler: vh}
}

// State returns the builder's current state.
func (b *Builder) State() State { return b.state }

// MessageHandler exposes the accumulated warnings/errors so a caller can
// inspect them after a send, regardless of outcome.
func (b *Builder) MessageHandler() handlers.MessageHandler { return b.messageHandler }

// SendSynchronous runs the full eleven-step pipeline and
// returns the transport response, which always carries its own
// success/failure state even when err is nil.
func (b *Builder) SendSynchronous(ctx context.Context) (*as2transport.Response, error) {
	return b.run(ctx, false, nil)
}

// SendSynchronousSbd runs the pipeline without steps 5-8 (payload parse,
// validation, SBD build, SBD serialize): sbdBytes is sent as-is and the
// completeness check runs in "no-payload" mode.
func (b *Builder) SendSynchronousSbd(ctx context.Context, sbdBytes []byte) (*as2transport.Response, error) {
	return b.run(ctx, true, sbdBytes)
}

func (b *Builder) run(ctx context.Context, preWrapped bool, preWrappedBytes []byte) (*as2transport.Response, error) {
	if b.state == StateCompleted || b.state == StateFailed {
		return nil, as2err.New(as2err.KindBuilderIncomplete, "builder already reached a terminal state", nil)
	}

	b.state = StateVerifying

	// Step 1: conditional SMP resolution.
	if shouldResolveViaSMP(b.cfg) {
		b.state = StateResolving
		if err := b.resolveViaSMP(ctx); err != nil {
			b.messageHandler.Warn("SMP resolution failed, continuing; completeness check will catch any gap", err)
		}
	}

	// Step 2 (default derivation) already folded into applyDefaults, but
	// SMP resolution may have just filled ReceiverAS2ID, so re-derive.
	if b.cfg.ReceiverKeyAlias == "" {
		b.cfg.ReceiverKeyAlias = b.cfg.ReceiverAS2ID
	}

	b.state = StateVerifying

	// Step 3: certificate check.
	if b.cfg.ReceiverCertificate != nil {
		outcome := certutil.CheckAccessPointCertificate(b.cfg.ReceiverCertificate, time.Now(), b.cfg.TrustStore, b.cfg.RevocationPolicy)
		if err := b.certHandler.OnResult(b.cfg.ReceiverCertificate, time.Now(), outcome); err != nil {
			b.messageHandler.Error("access point certificate check failed", err)
		}
	}

	// Step 4: completeness check.
	b.verifyCompleteness(preWrapped)
	if b.messageHandler.ErrorCount() > 0 {
		b.state = StateFailed
		return nil, as2err.New(as2err.KindBuilderIncomplete, fmt.Sprintf("%d completeness error(s) recorded", b.messageHandler.ErrorCount()), nil)
	}

	var body []byte

	if preWrapped {
		body = preWrappedBytes
	} else {
		// Step 5: read and parse payload.
		payload, err := b.resolvePayloadElement()
		if err != nil {
			b.state = StateFailed
			return nil, as2err.New(as2err.KindPayloadMalformed, "business document is not well-formed XML", err)
		}

		// Step 6: validate.
		if b.cfg.ValidationRuleSetID != "" && b.cfg.ValidationRegistry != nil {
			if _, err := b.cfg.ValidationRegistry.Validate(b.cfg.ValidationRuleSetID, payload, b.validationHandler); err != nil {
				b.state = StateFailed
				return nil, as2err.New(as2err.KindUnknownRuleSet, b.cfg.ValidationRuleSetID, err)
			}
		}

		// Step 7: build SBD.
		doc := sbd.Build(b.cfg.SenderPeppolID, b.cfg.ReceiverPeppolID, b.cfg.DocumentType, b.cfg.Process, "", "", payload)

		// Step 8: serialize SBD.
		var ns sbd.NamespaceContext
		if b.cfg.SBDHNamespaceContext != nil {
			ns = sbd.NamespaceContext(b.cfg.SBDHNamespaceContext)
		}
		serialized, err := sbd.Serialize(doc, ns)
		if err != nil {
			b.state = StateFailed
			return nil, as2err.New(as2err.KindPayloadMalformed, "SBD serialization failed", err)
		}
		if b.cfg.SBDHBytesObserver != nil {
			b.cfg.SBDHBytesObserver(serialized)
		}
		body = serialized
	}

	// Step 9: assemble AS2 settings.
	settings, err := b.assembleSettings()
	if err != nil {
		b.state = StateFailed
		return nil, as2err.New(as2err.KindKeyStoreIOError, "failed to load sender signing key", err)
	}

	// Step 10 is implicit in Transport.Send's MIME packing; step 11: send.
	b.state = StateSending
	transport := b.cfg.TransportFactory(settings)
	resp := transport.Send(ctx, body)

	if resp.HasException {
		b.state = StateFailed
		return resp, as2err.New(as2err.KindTransportError, "AS2 transport failed", resp.Exception)
	}

	b.state = StateCompleted
	return resp, nil
}

// shouldResolveViaSMP guards the conditional SMP resolution step: an SMP
// client is configured, all three Peppol ids are present, and at least
// one of {receiverUrl, receiverCert, receiverAS2Id} is still missing.
func shouldResolveViaSMP(cfg Config) bool {
	if cfg.SMPClient == nil {
		return false
	}
	if cfg.SenderPeppolID.Value() == "" || cfg.ReceiverPeppolID.Value() == "" || cfg.DocumentType.Value() == "" {
		return false
	}
	return cfg.ReceiverURL == "" || cfg.ReceiverCertificate == nil || cfg.ReceiverAS2ID == ""
}

func (b *Builder) resolveViaSMP(ctx context.Context) error {
	resolver := smp.NewResolver(b.cfg.SMPClient)
	endpoint, err := resolver.Resolve(ctx, b.cfg.ReceiverPeppolID, b.cfg.DocumentType, b.cfg.Process, b.cfg.TransportProfilePreference)
	if err != nil {
		return as2err.New(as2err.KindSmpLookupFailed, "SMP endpoint resolution failed", err)
	}

	if b.cfg.ReceiverURL == "" {
		b.cfg.ReceiverURL = endpoint.URL
	}
	if b.cfg.ReceiverCertificate == nil {
		b.cfg.ReceiverCertificate = endpoint.Certificate
	}
	if b.cfg.ReceiverAS2ID == "" && endpoint.Certificate != nil {
		cn, err := certutil.SubjectCN(endpoint.Certificate)
		if err == nil {
			b.cfg.ReceiverAS2ID = cn
		}
	}

	// Resolver returns the matched profile as a pure value; the caller
	// adjusts the signing algorithm once here rather than through a
	// mutating observer.
	if endpoint.TransportProfile.Equals(peppolid.TransportProfileAS2v1) {
		b.cfg.SigningAlgorithm = as2transport.SHA1
	} else {
		b.cfg.SigningAlgorithm = as2transport.SHA256
	}

	return nil
}

// verifyCompleteness records a warning or error per missing required
// field before the send pipeline touches the network.
func (b *Builder) verifyCompleteness(preWrapped bool) {
	requireNonEmpty := func(value, field string) {
		if value == "" {
			b.messageHandler.Error(fmt.Sprintf("%s is required", field), nil)
		}
	}

	haveKeyStoreFile := b.cfg.KeyStoreFile != ""
	haveKeyStoreBytes := len(b.cfg.KeyStoreBytes) > 0
	if haveKeyStoreFile == haveKeyStoreBytes {
		b.messageHandler.Error("exactly one of KeyStoreFile or KeyStoreBytes must be set", nil)
	}

	requireNonEmpty(b.cfg.SenderAS2ID, "SenderAS2ID")
	requireNonEmpty(b.cfg.SenderEmail, "SenderEmail")
	requireNonEmpty(b.cfg.SenderKeyAlias, "SenderKeyAlias")
	requireNonEmpty(b.cfg.ReceiverAS2ID, "ReceiverAS2ID")
	requireNonEmpty(b.cfg.ReceiverKeyAlias, "ReceiverKeyAlias")
	requireNonEmpty(b.cfg.ReceiverURL, "ReceiverURL")
	if b.cfg.ReceiverCertificate == nil {
		b.messageHandler.Error("ReceiverCertificate is required", nil)
	}

	if hasPPrefix(b.cfg.SenderAS2ID) && b.cfg.SenderKeyAlias != b.cfg.SenderAS2ID {
		b.messageHandler.Warn("sender AS2 id uses the reserved 'P' prefix but SenderKeyAlias does not match it", nil)
	}
	if hasPPrefix(b.cfg.ReceiverAS2ID) && b.cfg.ReceiverKeyAlias != b.cfg.ReceiverAS2ID {
		b.messageHandler.Warn("receiver AS2 id uses the reserved 'P' prefix but ReceiverKeyAlias does not match it", nil)
	}

	warnSchemeMismatch := func(id peppolid.Identifier, expected, field string) {
		if id.Value() != "" && !peppolid.HasScheme(id, expected) {
			b.messageHandler.Warn(fmt.Sprintf("%s uses non-default scheme %q, expected %q", field, id.Scheme(), expected), nil)
		}
	}
	warnSchemeMismatch(b.cfg.SenderPeppolID.Identifier, peppolid.DefaultParticipantScheme, "sender participant id")
	warnSchemeMismatch(b.cfg.ReceiverPeppolID.Identifier, peppolid.DefaultParticipantScheme, "receiver participant id")
	warnSchemeMismatch(b.cfg.DocumentType.Identifier, peppolid.DefaultDocumentTypeScheme, "document type id")
	warnSchemeMismatch(b.cfg.Process.Identifier, peppolid.DefaultProcessScheme, "process id")

	if !preWrapped {
		haveBytes := len(b.cfg.BusinessDocumentBytes) > 0
		haveElement := b.cfg.BusinessDocumentElement != nil
		if haveBytes == haveElement {
			b.messageHandler.Error("exactly one of BusinessDocumentBytes or BusinessDocumentElement must be set", nil)
		}
	}
}

func hasPPrefix(as2ID string) bool {
	return len(as2ID) > 0 && as2ID[0] == 'P'
}

func (b *Builder) resolvePayloadElement() (*etree.Element, error) {
	if b.cfg.BusinessDocumentElement != nil {
		return b.cfg.BusinessDocumentElement, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(b.cfg.BusinessDocumentBytes); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("as2client: business document has no root element")
	}
	return root, nil
}

func (b *Builder) assembleSettings() (as2transport.Settings, error) {
	cfg := b.cfg

	settings := as2transport.Settings{
		SenderAS2ID:             cfg.SenderAS2ID,
		SenderEmail:             cfg.SenderEmail,
		SenderKeyAlias:          cfg.SenderKeyAlias,
		ReceiverAS2ID:           cfg.ReceiverAS2ID,
		ReceiverKeyAlias:        cfg.ReceiverKeyAlias,
		ReceiverURL:             cfg.ReceiverURL,
		ReceiverCertificate:     cfg.ReceiverCertificate,
		SigningAlgorithm:        cfg.SigningAlgorithm,
		PartnershipName:         as2transport.PartnershipName(cfg.SenderAS2ID, cfg.ReceiverAS2ID),
		Subject:                 cfg.AS2Subject,
		MessageID:               mustFormatMessageID(cfg),
		ContentTransferEncoding: cfg.ContentTransferEncoding,
		MimeType:                cfg.MimeType,
		ConnectTimeout:          cfg.ConnectTimeout,
		ReadTimeout:             cfg.ReadTimeout,
		DumpOutgoing:            cfg.OutgoingDumpHook,
		DumpIncoming:            cfg.IncomingDumpHook,
		UseDataHandler:          cfg.UseDataHandler,
	}

	keyStore := cfg.KeyStore
	if keyStore == nil {
		loaded, err := b.loadKeyStore()
		if err != nil {
			return as2transport.Settings{}, err
		}
		keyStore = loaded
	}

	if keyStore != nil && cfg.SenderKeyAlias != "" {
		entry, err := keyStore.Lookup(cfg.SenderKeyAlias)
		if err != nil {
			return as2transport.Settings{}, err
		}
		settings.SignerCertificate = entry.Certificate
		settings.SignerKey = entry.PrivateKey
	}

	return settings, nil
}

// loadKeyStore builds a keystore.Store from KeyStoreFile or KeyStoreBytes,
// decoding the password-protected PKCS#12 container they hold. Returns nil
// without error when neither is set, matching verifyCompleteness already
// having rejected that combination as incomplete.
func (b *Builder) loadKeyStore() (*keystore.Store, error) {
	cfg := b.cfg
	switch {
	case len(cfg.KeyStoreBytes) > 0:
		return keystore.LoadBytes(cfg.KeyStoreBytes, cfg.SenderKeyAlias, cfg.KeyStorePassword)
	case cfg.KeyStoreFile != "":
		store, err := keystore.Load(cfg.KeyStoreFile, cfg.SenderKeyAlias, cfg.KeyStorePassword)
		if err != nil {
			return nil, err
		}
		if cfg.SaveKeyStoreChangesToFile {
			if err := store.BindFile(cfg.KeyStoreFile, true); err != nil {
				return nil, err
			}
		}
		return store, nil
	default:
		return nil, nil
	}
}

func mustFormatMessageID(cfg Config) string {
	id, err := formatMessageID(cfg.MessageIDFormat, cfg.SenderAS2ID, cfg.ReceiverAS2ID)
	if err != nil {
		return cfg.MessageIDFormat
	}
	return id
}
