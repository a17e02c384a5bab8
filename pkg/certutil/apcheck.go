package certutil

import (
	"crypto/x509"
	"fmt"
	"time"
)

// Status is the outcome of an Access Point certificate check.
type Status int

const (
	// Valid means the certificate passed every configured check.
	Valid Status = iota
	// NotYetValid means now is before the certificate's NotBefore.
	NotYetValid
	// Expired means now is after the certificate's NotAfter.
	Expired
	// RevokedOrUnknownIssuer means the certificate failed chain verification
	// against the trust store, or (when revocation checking is enabled) was
	// reported revoked.
	RevokedOrUnknownIssuer
	// Invalid covers any other failure, with Reason set.
	Invalid
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "Valid"
	case NotYetValid:
		return "NotYetValid"
	case Expired:
		return "Expired"
	case RevokedOrUnknownIssuer:
		return "RevokedOrUnknownIssuer"
	case Invalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// CheckResult is the result of CheckAccessPointCertificate.
type CheckResult struct {
	Status Status
	Reason string // populated for every non-Valid status
}

// OK reports whether the check passed.
func (r CheckResult) OK() bool { return r.Status == Valid }

func (r CheckResult) Error() string {
	if r.OK() {
		return ""
	}
	if r.Reason == "" {
		return r.Status.String()
	}
	return fmt.Sprintf("%s: %s", r.Status, r.Reason)
}

// RevocationChecker abstracts a CRL/OCSP lookup. It is consulted only when
// Policy.CheckRevocation is true; the core does not implement a concrete
// CRL/OCSP client.
type RevocationChecker interface {
	IsRevoked(cert *x509.Certificate) (revoked bool, err error)
}

// Policy controls which checks CheckAccessPointCertificate performs beyond
// the validity-window check and the trust-chain check.
type Policy struct {
	// CheckRevocation enables the CRL/OCSP check via RevocationChecker.
	CheckRevocation bool
	// RevocationChecker must be set when CheckRevocation is true.
	RevocationChecker RevocationChecker
}

// CheckAccessPointCertificate checks cert's validity window, chains it to
// trust, and optionally checks revocation. The chain check runs only when
// trust is non-nil and holds at least one anchor; otherwise it is skipped.
func CheckAccessPointCertificate(cert *x509.Certificate, now time.Time, trust *TrustStore, policy Policy) CheckResult {
	if cert == nil {
		return CheckResult{Status: Invalid, Reason: "certificate is nil"}
	}

	if now.Before(cert.NotBefore) {
		return CheckResult{Status: NotYetValid, Reason: fmt.Sprintf("not valid before %s", cert.NotBefore.UTC())}
	}
	if now.After(cert.NotAfter) {
		return CheckResult{Status: Expired, Reason: fmt.Sprintf("expired at %s", cert.NotAfter.UTC())}
	}

	if trust != nil && !trust.Empty() {
		opts := x509.VerifyOptions{
			Roots:       trust.Pool(),
			CurrentTime: now,
			KeyUsages:   []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		}
		if _, err := cert.Verify(opts); err != nil {
			return CheckResult{Status: RevokedOrUnknownIssuer, Reason: fmt.Sprintf("chain verification failed: %v", err)}
		}
	}

	if policy.CheckRevocation {
		if policy.RevocationChecker == nil {
			return CheckResult{Status: Invalid, Reason: "revocation checking enabled but no RevocationChecker configured"}
		}
		revoked, err := policy.RevocationChecker.IsRevoked(cert)
		if err != nil {
			return CheckResult{Status: Invalid, Reason: fmt.Sprintf("revocation check failed: %v", err)}
		}
		if revoked {
			return CheckResult{Status: RevokedOrUnknownIssuer, Reason: "certificate revoked"}
		}
	}

	return CheckResult{Status: Valid}
}
