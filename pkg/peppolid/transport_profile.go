package peppolid

// TransportProfile identifies a concrete AS2 wire-protocol generation. Two
// well-known profiles exist today; an SMP endpoint advertises exactly one.
type TransportProfile struct {
	name string
}

// Well-known Peppol AS2 transport profiles.
var (
	TransportProfileAS2v1 = TransportProfile{name: "peppol-transport-as2-v1_0"}
	TransportProfileAS2v2 = TransportProfile{name: "peppol-transport-as2-v2_0"}
)

// NewTransportProfile builds a TransportProfile from a raw identifier
// string, for profiles advertised by an SMP that this module doesn't
// predefine as a constant.
func NewTransportProfile(name string) TransportProfile {
	return TransportProfile{name: name}
}

// String returns the raw transport profile identifier.
func (p TransportProfile) String() string { return p.name }

// Equals reports whether two transport profiles are the same identifier.
func (p TransportProfile) Equals(other TransportProfile) bool {
	return p.name == other.name
}

// DefaultTransportProfileOrder is the default endpoint-selection preference
// order.
func DefaultTransportProfileOrder() []TransportProfile {
	return []TransportProfile{TransportProfileAS2v2, TransportProfileAS2v1}
}
