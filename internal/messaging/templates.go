package messaging

import (
	"bytes"
	"fmt"
	"text/template"
)

// TemplateData feeds message bodies. Unused fields are ignored by a template.
type TemplateData struct {
	BusinessName string
	Link         string
	Code         string
	Date         string
	StartTime    string
	ServiceName  string
	TTLMinutes   int
}

var templates = template.Must(template.New("sms").Parse(`
{{define "BOOKING_LINK"}}Thanks for calling {{.BusinessName}}! Sorry we missed you. Book your appointment here: {{.Link}}{{end}}
{{define "COMPLAINT_LINK"}}Thanks for calling {{.BusinessName}}. We're sorry to hear something went wrong. Tell us what happened: {{.Link}}{{end}}
{{define "OTP"}}Your {{.BusinessName}} verification code is {{.Code}}. It expires in {{.TTLMinutes}} minutes.{{end}}
{{define "BOOKING_CONFIRMATION"}}{{.BusinessName}}: your {{if .ServiceName}}{{.ServiceName}} {{end}}appointment on {{.Date}} at {{.StartTime}} is booked. We'll see you then!{{end}}
`))

// Render executes the body template for typ.
func Render(typ MessageType, data TemplateData) (string, error) {
	t := templates.Lookup(string(typ))
	if t == nil {
		return "", fmt.Errorf("messaging: no template for %s", typ)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("messaging: render %s: %w", typ, err)
	}
	return buf.String(), nil
}
