// Package sbd builds and serializes the Standard Business Document envelope:
// the UN/CEFACT SBDH wrapped around a business payload element, with a
// namespace context controllable enough to emit the SBDH namespace on the
// default (empty) XML prefix some receivers require.
package sbd

import (
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/sufield/peppol-as2/pkg/peppolid"
)

// Namespace is the UN/CEFACT Standard Business Document Header namespace.
const Namespace = "http://www.unece.org/cefact/namespaces/StandardBusinessDocumentHeader"

// DefaultUBLVersion is used when the caller doesn't supply one. Left as a
// configurable knob since newer Peppol profiles may require "2.2" or "2.3".
const DefaultUBLVersion = "2.1"

// Document is the SBD carrier: identification of sender, receiver, document
// type and process, an instance identifier, a UBL version, a creation
// timestamp, and the business payload preserved verbatim.
type Document struct {
	Sender   peppolid.ParticipantIdentifier
	Receiver peppolid.ParticipantIdentifier
	DocType  peppolid.DocumentTypeIdentifier
	Process  peppolid.ProcessIdentifier

	InstanceIdentifier string
	UBLVersion         string
	CreationTimestamp  time.Time

	// NamespaceURI and Type mirror the business payload element's own
	// namespace URI and local name.
	NamespaceURI string
	Type         string

	// BusinessMessage is the payload element, preserved as-is.
	BusinessMessage *etree.Element
}

// Build assembles a Document around payload: document identification is
// derived from the payload element's own namespace/local name, instanceID
// defaults to a fresh UUID when empty, and ublVersion defaults to
// DefaultUBLVersion when empty.
func Build(sender peppolid.ParticipantIdentifier, receiver peppolid.ParticipantIdentifier, docType peppolid.DocumentTypeIdentifier, process peppolid.ProcessIdentifier, instanceID string, ublVersion string, payload *etree.Element) *Document {
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	if ublVersion == "" {
		ublVersion = DefaultUBLVersion
	}

	return &Document{
		Sender:             sender,
		Receiver:           receiver,
		DocType:            docType,
		Process:            process,
		InstanceIdentifier: instanceID,
		UBLVersion:         ublVersion,
		CreationTimestamp:  time.Now().UTC(),
		NamespaceURI:       payload.NamespaceURI(),
		Type:               payload.Tag,
		BusinessMessage:    payload,
	}
}
