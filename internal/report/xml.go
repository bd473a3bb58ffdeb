// =============================================================================
// CSV Reconciler - XML Report Writer
// =============================================================================
//
// XML STRUCTURE:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <reconciliation discrepancies="2">
//     <discrepancy n="1">
//       <name>Bob</name>
//       <amount_numeric_fin>50</amount_numeric_fin>
//       <amount_numeric_spo>40</amount_numeric_spo>
//       <difference>10</difference>
//     </discrepancy>
//     <discrepancy n="2">
//       ...
//     </discrepancy>
//     <total_difference>10</total_difference>
//   </reconciliation>
//
// =============================================================================

package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/ginjaninja78/csv-reconciler/internal/reconciler"
)

// XMLFormatter outputs the XML document.
type XMLFormatter struct {
	// Indent is the string used for indentation.
	Indent string

	// OmitDeclaration drops the <?xml ...?> line.
	OmitDeclaration bool
}

// element is one node of the document: either a text value or children.
type element struct {
	name     string
	attrs    [][2]string
	value    string
	children []element
}

// Format implements the Formatter interface for XML output.
func (f *XMLFormatter) Format(w io.Writer, res *reconciler.Result) error {
	var buffer bytes.Buffer

	if !f.OmitDeclaration {
		buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	}
	writeElement(&buffer, buildDocument(res), f.Indent, 0)

	_, err := w.Write(buffer.Bytes())
	return err
}

// buildDocument converts the result into an element tree.
func buildDocument(res *reconciler.Result) element {
	root := element{
		name:  "reconciliation",
		attrs: [][2]string{{"discrepancies", strconv.Itoa(len(res.Discrepancies))}},
	}

	for i, row := range res.Discrepancies {
		root.children = append(root.children, element{
			name:  "discrepancy",
			attrs: [][2]string{{"n", strconv.Itoa(i + 1)}},
			children: []element{
				{name: "name", value: row.Name},
				{name: "amount_numeric_fin", value: formatAmount(row.FinTotal)},
				{name: "amount_numeric_spo", value: formatAmount(row.SpoTotal)},
				{name: "difference", value: formatAmount(row.Difference)},
			},
		})
	}

	root.children = append(root.children, element{
		name:  "total_difference",
		value: formatAmount(res.TotalDifference),
	})

	return root
}

// writeElement writes an element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, el element, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(el.name)
	for _, attr := range el.attrs {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr[0], escapeXML(attr[1])))
	}

	if len(el.children) == 0 && el.value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if len(el.children) == 0 {
		buffer.WriteString(escapeXML(el.value))
	} else {
		buffer.WriteString("\n")
		for _, child := range el.children {
			writeElement(buffer, child, indent, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(el.name)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML. Control characters other than
// tab, newline and carriage return are not allowed in XML 1.0 and are dropped.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		case '\t', '\n', '\r':
			buffer.WriteRune(r)
		default:
			if r < 0x20 {
				continue
			}
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
