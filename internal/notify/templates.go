package notify

import (
	"bytes"
	"html/template"
	"strings"
)

var orderTemplate = template.Must(template.New("order").Parse(`
<h2>Thank you for your order!</h2>
<p><strong>Order ID:</strong> {{.ReferenceID}}</p>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<ul>{{range .Items}}
  <li>
    <strong>{{.Product}}</strong><br>
    Size: {{.Size}} | Color: {{.Color}}<br>
    Qty: {{.Quantity}} @ ${{.UnitPrice}}
  </li>{{end}}
</ul>
<p><strong>Subtotal:</strong> ${{.Subtotal}}</p>
{{- if .HasDiscount}}
<p><strong>Promo Discount:</strong> -${{.Discount}}</p>
{{- end}}
<p><strong>Shipping:</strong> ${{.Shipping}}</p>
<p><strong>Tax:</strong> ${{.Tax}}</p>
<p><strong>Total Charged:</strong> ${{.Total}}</p>
<p>If you have any questions, reply to this email or contact us at {{.Support}}.</p>
`))

var contactTemplate = template.Must(template.New("contact").Parse(`
<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Message:</strong><br/>{{.Message}}</p>
`))

// ReceiptLine is one purchased item in the confirmation.
type ReceiptLine struct {
	Product   string
	Size      string
	Color     string
	Quantity  int
	UnitPrice string
}

// Receipt carries everything shown in the order confirmation. Money fields
// are preformatted with two decimals.
type Receipt struct {
	ReferenceID string
	Name        string
	Email       string
	Items       []ReceiptLine
	Subtotal    string
	Discount    string
	HasDiscount bool
	Shipping    string
	Tax         string
	Total       string
	Support     string
}

// ContactMessage is a contact form submission.
type ContactMessage struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// RenderReceipt renders the order confirmation body.
func RenderReceipt(r Receipt) (string, error) {
	var buf bytes.Buffer
	if err := orderTemplate.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderContact renders the contact relay body. Message line breaks become <br>.
func RenderContact(c ContactMessage) (string, error) {
	lines := strings.Split(strings.ReplaceAll(c.Message, "\r\n", "\n"), "\n")
	escaped := make([]string, len(lines))
	for i, line := range lines {
		escaped[i] = template.HTMLEscapeString(line)
	}
	data := struct {
		Name    string
		Email   string
		Subject string
		Message template.HTML
	}{
		Name:    c.Name,
		Email:   c.Email,
		Subject: c.Subject,
		Message: template.HTML(strings.Join(escaped, "<br>")),
	}
	var buf bytes.Buffer
	if err := contactTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
