// =============================================================================
// Voucher Export - XML Writer Module
// =============================================================================
//
// This module is responsible for encoding export documents as the XML
// import format of the target accounting system.
//
// XML STRUCTURE:
//
//   <ENVELOPE>
//     <BODY>
//       <IMPORTDATA>
//         <REQUESTDATA>
//           <TALLYMESSAGE>                     <!-- One per voucher -->
//             <VOUCHER>
//               <DATE>2022-04-01</DATE>
//               <REFERENCE>INV-9</REFERENCE>   <!-- Omitted when absent -->
//               <REFERENCEDATE>20220331</REFERENCEDATE>
//               <VOUCHERTYPENAME>Sales</VOUCHERTYPENAME>
//               <PARTYLEDGERNAME>Cash</PARTYLEDGERNAME>
//               <VOUCHERNUMBER>S-1</VOUCHERNUMBER>
//               <ALLLEDGERENTRIES.LIST>
//                 <LEDGERNAME>Sales</LEDGERNAME>
//                 <ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE>
//                 <AMOUNT>100.00</AMOUNT>
//               </ALLLEDGERENTRIES.LIST>
//             </VOUCHER>
//           </TALLYMESSAGE>
//         </REQUESTDATA>
//       </IMPORTDATA>
//     </BODY>
//   </ENVELOPE>
//
// Ledger master documents use the same envelope with LEDGER records in
// place of VOUCHER.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/tally-voucher-export/internal/masters"
	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

// Element names of the import format.
const (
	TagEnvelope       = "ENVELOPE"
	TagBody           = "BODY"
	TagImportData     = "IMPORTDATA"
	TagRequestData    = "REQUESTDATA"
	TagMessage        = "TALLYMESSAGE"
	TagVoucher        = "VOUCHER"
	TagDate           = "DATE"
	TagReference      = "REFERENCE"
	TagReferenceDate  = "REFERENCEDATE"
	TagVoucherType    = "VOUCHERTYPENAME"
	TagPartyLedger    = "PARTYLEDGERNAME"
	TagVoucherNumber  = "VOUCHERNUMBER"
	TagLedgerEntries  = "ALLLEDGERENTRIES.LIST"
	TagLedgerName     = "LEDGERNAME"
	TagDeemedPositive = "ISDEEMEDPOSITIVE"
	TagAmount         = "AMOUNT"
	TagLedger         = "LEDGER"
	TagParent         = "PARENT"
	TagLanguageNames  = "LANGUAGENAME.LIST"
	TagNames          = "NAME.LIST"
	TagName           = "NAME"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate encodes a voucher document with the default options.
func Generate(doc voucher.ExportDocument) ([]byte, error) {
	return GenerateWithOptions(doc, DefaultGenerateOptions())
}

// GenerateWithOptions encodes a voucher document. Messages and vouchers are
// written in document order.
func GenerateWithOptions(doc voucher.ExportDocument, options GenerateOptions) ([]byte, error) {
	messages := doc.Envelope.Body.ImportData.RequestData.Messages

	elements := make([]XMLElement, 0, len(messages))
	for _, msg := range messages {
		message := XMLElement{XMLName: xml.Name{Local: TagMessage}}
		for _, v := range msg.Voucher {
			message.Children = append(message.Children, buildVoucherElement(v))
		}
		elements = append(elements, message)
	}

	return render(envelope(elements), options)
}

// GenerateLedgers encodes a ledger master document with the default options.
func GenerateLedgers(doc masters.Document) ([]byte, error) {
	return GenerateLedgersWithOptions(doc, DefaultGenerateOptions())
}

// GenerateLedgersWithOptions encodes a ledger master document, one ledger
// per message.
func GenerateLedgersWithOptions(doc masters.Document, options GenerateOptions) ([]byte, error) {
	elements := make([]XMLElement, 0, len(doc.Ledgers))
	for _, ledger := range doc.Ledgers {
		elements = append(elements, XMLElement{
			XMLName:  xml.Name{Local: TagMessage},
			Children: []XMLElement{buildLedgerElement(ledger)},
		})
	}

	return render(envelope(elements), options)
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// envelope wraps messages in the fixed four-level nesting.
func envelope(messages []XMLElement) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: TagEnvelope},
		Children: []XMLElement{{
			XMLName: xml.Name{Local: TagBody},
			Children: []XMLElement{{
				XMLName: xml.Name{Local: TagImportData},
				Children: []XMLElement{{
					XMLName:  xml.Name{Local: TagRequestData},
					Children: messages,
				}},
			}},
		}},
	}
}

// buildVoucherElement builds one VOUCHER. Optional header fields are left
// out when absent; PARTYLEDGERNAME is always written.
func buildVoucherElement(v voucher.Voucher) XMLElement {
	element := XMLElement{XMLName: xml.Name{Local: TagVoucher}}

	element.Children = append(element.Children, createSimpleElement(TagDate, v.Date))
	if v.Reference != nil {
		element.Children = append(element.Children, createSimpleElement(TagReference, *v.Reference))
	}
	if v.ReferenceDate != nil {
		element.Children = append(element.Children, createSimpleElement(TagReferenceDate, *v.ReferenceDate))
	}
	element.Children = append(element.Children,
		createSimpleElement(TagVoucherType, v.VoucherTypeName),
		createSimpleElement(TagPartyLedger, v.PartyLedgerName),
	)
	if v.VoucherNumber != nil {
		element.Children = append(element.Children, createSimpleElement(TagVoucherNumber, *v.VoucherNumber))
	}

	for _, entry := range v.LedgerEntries {
		element.Children = append(element.Children, XMLElement{
			XMLName: xml.Name{Local: TagLedgerEntries},
			Children: []XMLElement{
				createSimpleElement(TagLedgerName, entry.LedgerName),
				createSimpleElement(TagDeemedPositive, entry.DeemedPositive()),
				createSimpleElement(TagAmount, FormatAmount(entry.Amount)),
			},
		})
	}

	return element
}

// buildLedgerElement builds one LEDGER master record.
func buildLedgerElement(ledger masters.Ledger) XMLElement {
	return XMLElement{
		XMLName:    xml.Name{Local: TagLedger},
		Attributes: []xml.Attr{{Name: xml.Name{Local: TagName}, Value: ledger.Name}},
		Children: []XMLElement{
			createSimpleElement(TagParent, ledger.Parent),
			{
				XMLName: xml.Name{Local: TagLanguageNames},
				Children: []XMLElement{{
					XMLName:  xml.Name{Local: TagNames},
					Children: []XMLElement{createSimpleElement(TagName, ledger.Name)},
				}},
			},
		},
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// FormatAmount writes an amount with the precision it was read with, so
// "100.50" stays "100.50".
func FormatAmount(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: name},
		Value:   value,
	}
}

// render writes the declaration and the element tree.
func render(root XMLElement, options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		encoding := options.Encoding
		if encoding == "" {
			encoding = "UTF-8"
		}
		fmt.Fprintf(&buffer, "<?xml version=\"1.0\" encoding=\"%s\"?>\n", encoding)
	}

	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	for _, attr := range element.Attributes {
		fmt.Fprintf(buffer, " %s=\"%s\"", attr.Name.Local, escapeXML(attr.Value))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if len(element.Children) == 0 {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer
	if err := xml.EscapeText(&buffer, []byte(s)); err != nil {
		return s
	}
	return buffer.String()
}
