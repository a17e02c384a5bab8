package sbd

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/sufield/peppol-as2/pkg/peppolid"
)

// NamespaceContext maps an XML namespace prefix to a URI. The empty string
// key is the default (unprefixed) namespace. A nil context serializes with
// the SBDH namespace on the default prefix, since a prefixed form breaks
// some receivers.
type NamespaceContext map[string]string

// DefaultNamespaceContext maps Namespace to the default (empty) prefix.
func DefaultNamespaceContext() NamespaceContext {
	return NamespaceContext{"": Namespace}
}

const creationTimeLayout = "2006-01-02T15:04:05.000-07:00"

// Serialize renders doc as the SBDH-wrapped XML byte stream. A nil ns uses
// DefaultNamespaceContext.
func Serialize(doc *Document, ns NamespaceContext) ([]byte, error) {
	if ns == nil {
		ns = DefaultNamespaceContext()
	}

	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := out.CreateElement("StandardBusinessDocument")
	for prefix, uri := range ns {
		if prefix == "" {
			root.CreateAttr("xmlns", uri)
		} else {
			root.CreateAttr("xmlns:"+prefix, uri)
		}
	}

	header := root.CreateElement("StandardBusinessDocumentHeader")
	header.CreateElement("HeaderVersion").SetText("1.0")

	sender := header.CreateElement("Sender")
	senderID := sender.CreateElement("Identifier")
	senderID.CreateAttr("Authority", doc.Sender.Scheme())
	senderID.SetText(doc.Sender.Value())

	receiver := header.CreateElement("Receiver")
	receiverID := receiver.CreateElement("Identifier")
	receiverID.CreateAttr("Authority", doc.Receiver.Scheme())
	receiverID.SetText(doc.Receiver.Value())

	docIdent := header.CreateElement("DocumentIdentification")
	docIdent.CreateElement("Standard").SetText(doc.NamespaceURI)
	docIdent.CreateElement("TypeVersion").SetText(doc.UBLVersion)
	docIdent.CreateElement("InstanceIdentifier").SetText(doc.InstanceIdentifier)
	docIdent.CreateElement("Type").SetText(doc.Type)
	docIdent.CreateElement("CreationDateAndTime").SetText(doc.CreationTimestamp.UTC().Format(creationTimeLayout))

	scope := header.CreateElement("BusinessScope")
	docScope := scope.CreateElement("Scope")
	docScope.CreateElement("Type").SetText("DOCUMENTID")
	docScope.CreateElement("InstanceIdentifier").SetText(doc.DocType.URIEncoded())
	procScope := scope.CreateElement("Scope")
	procScope.CreateElement("Type").SetText("PROCESSID")
	procScope.CreateElement("InstanceIdentifier").SetText(doc.Process.URIEncoded())

	// Indent the header before attaching the payload so the payload's own
	// whitespace is left untouched.
	out.Indent(2)
	if doc.BusinessMessage != nil {
		root.AddChild(doc.BusinessMessage.Copy())
	}

	data, err := out.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("sbd: serialize: %w", err)
	}
	return data, nil
}

// Parse reads an SBD-wrapped XML byte stream back into a Document,
// inverting Serialize.
func Parse(data []byte) (*Document, error) {
	in := etree.NewDocument()
	if err := in.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("sbd: parse: %w", err)
	}

	root := in.Root()
	if root == nil || root.Tag != "StandardBusinessDocument" {
		return nil, fmt.Errorf("sbd: parse: missing StandardBusinessDocument root")
	}

	header := root.SelectElement("StandardBusinessDocumentHeader")
	if header == nil {
		return nil, fmt.Errorf("sbd: parse: missing StandardBusinessDocumentHeader")
	}

	senderID := header.FindElement("Sender/Identifier")
	receiverID := header.FindElement("Receiver/Identifier")
	if senderID == nil || receiverID == nil {
		return nil, fmt.Errorf("sbd: parse: missing Sender or Receiver identifier")
	}

	docIdent := header.SelectElement("DocumentIdentification")
	if docIdent == nil {
		return nil, fmt.Errorf("sbd: parse: missing DocumentIdentification")
	}

	docTypeID := findScopeInstanceIdentifier(header, "DOCUMENTID")
	processID := findScopeInstanceIdentifier(header, "PROCESSID")
	if docTypeID == "" || processID == "" {
		return nil, fmt.Errorf("sbd: parse: missing DOCUMENTID or PROCESSID business scope")
	}

	createdAt, err := time.Parse(creationTimeLayout, textOf(docIdent.SelectElement("CreationDateAndTime")))
	if err != nil {
		return nil, fmt.Errorf("sbd: parse: invalid CreationDateAndTime: %w", err)
	}

	var payload *etree.Element
	for _, child := range root.ChildElements() {
		if child.Tag != "StandardBusinessDocumentHeader" {
			payload = child
			break
		}
	}
	if payload == nil {
		return nil, fmt.Errorf("sbd: parse: missing business payload element")
	}

	return &Document{
		Sender:             peppolid.NewParticipantIdentifier(senderID.SelectAttrValue("Authority", ""), textOf(senderID)),
		Receiver:           peppolid.NewParticipantIdentifier(receiverID.SelectAttrValue("Authority", ""), textOf(receiverID)),
		DocType:            decodeURIEncoded(docTypeID, peppolid.NewDocumentTypeIdentifier),
		Process:            decodeURIEncoded(processID, peppolid.NewProcessIdentifier),
		InstanceIdentifier: textOf(docIdent.SelectElement("InstanceIdentifier")),
		UBLVersion:         textOf(docIdent.SelectElement("TypeVersion")),
		CreationTimestamp:  createdAt,
		NamespaceURI:       textOf(docIdent.SelectElement("Standard")),
		Type:               textOf(docIdent.SelectElement("Type")),
		BusinessMessage:    payload.Copy(),
	}, nil
}

func findScopeInstanceIdentifier(header *etree.Element, scopeType string) string {
	for _, scope := range header.FindElements("BusinessScope/Scope") {
		if textOf(scope.SelectElement("Type")) == scopeType {
			return textOf(scope.SelectElement("InstanceIdentifier"))
		}
	}
	return ""
}

func textOf(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return e.Text()
}

// decodeURIEncoded splits a "scheme::value" identifier string produced by
// Identifier.URIEncoded back into its parts.
func decodeURIEncoded[T any](encoded string, construct func(scheme, value string) T) T {
	scheme, value := splitURIEncoded(encoded)
	return construct(scheme, value)
}

func splitURIEncoded(encoded string) (scheme, value string) {
	for i := 0; i+1 < len(encoded); i++ {
		if encoded[i] == ':' && encoded[i+1] == ':' {
			return encoded[:i], encoded[i+2:]
		}
	}
	return "", encoded
}
