package mail

import (
	"bytes"
	"html/template"
	"time"
)

// slotLayout is how appointment slots are rendered in emails.
const slotLayout = "Mon, 02 Jan 2006 15:04"

var tmplFuncs = template.FuncMap{
	"slot": func(t time.Time) string { return t.Format(slotLayout) },
}

var (
	schedulingTmpl = template.Must(template.New("scheduling").Funcs(tmplFuncs).Parse(`
<p>Hello {{.ContractorName}},</p>
<p>You have been selected for a new {{.RequestType}} job ({{.Priority}} priority):</p>
<blockquote>{{.Description}}</blockquote>
<p>Property: {{.PropertyAddress}}</p>
{{if .PreferredSlots}}<p>The tenant prefers one of the following times:</p>
<ul>{{range .PreferredSlots}}<li>{{slot .}}</li>{{end}}</ul>{{end}}
<p><a href="{{.RespondURL}}">Accept a slot or propose your own time</a></p>
<p>This link is personal to you and can only be used once.</p>
`))

	invoiceTmpl = template.Must(template.New("invoice").Funcs(tmplFuncs).Parse(`
<p>Hello {{.ContractorName}},</p>
<p>The {{.RequestType}} job at {{.PropertyAddress}} has been marked complete.</p>
<p>Please submit your invoice here:</p>
<p><a href="{{.UploadURL}}">Upload invoice</a></p>
<p>This link is personal to you and can only be used once.</p>
`))

	confirmationTmpl = template.Must(template.New("confirmation").Funcs(tmplFuncs).Parse(`
<p>Hello {{.TenantName}},</p>
<p>{{.ContractorName}} reports that the {{.RequestType}} work in your home is complete.</p>
<p>Please confirm whether you are satisfied with the result:</p>
<p><a href="{{.ConfirmURL}}">Yes, the work is done</a> &middot; <a href="{{.DisputeURL}}">No, there is a problem</a></p>
<p>If we do not hear from you within {{.WindowHours}} hours, the job will be closed automatically.</p>
`))

	disputeTmpl = template.Must(template.New("dispute").Funcs(tmplFuncs).Parse(`
<p>Hello {{.ContractorName}},</p>
<p>The tenant has reported that the {{.RequestType}} work at {{.PropertyAddress}} is not complete.</p>
{{if .Notes}}<blockquote>{{.Notes}}</blockquote>{{end}}
<p>The request has been reopened; please get in touch with the property manager.</p>
`))
)

// SchedulingEmailData fills the contractor scheduling invitation.
type SchedulingEmailData struct {
	ContractorName  string
	RequestType     string
	Priority        string
	Description     string
	PropertyAddress string
	PreferredSlots  []time.Time
	RespondURL      string
}

// InvoiceEmailData fills the contractor invoice-upload invitation.
type InvoiceEmailData struct {
	ContractorName  string
	RequestType     string
	PropertyAddress string
	UploadURL       string
}

// ConfirmationEmailData fills the tenant completion-confirmation email.
type ConfirmationEmailData struct {
	TenantName     string
	ContractorName string
	RequestType    string
	ConfirmURL     string
	DisputeURL     string
	WindowHours    int
}

// DisputeEmailData fills the contractor dispute notification.
type DisputeEmailData struct {
	ContractorName  string
	RequestType     string
	PropertyAddress string
	Notes           string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SchedulingEmail renders the scheduling invitation body.
func SchedulingEmail(d SchedulingEmailData) (string, error) { return render(schedulingTmpl, d) }

// InvoiceEmail renders the invoice-upload invitation body.
func InvoiceEmail(d InvoiceEmailData) (string, error) { return render(invoiceTmpl, d) }

// ConfirmationEmail renders the tenant confirmation body.
func ConfirmationEmail(d ConfirmationEmailData) (string, error) { return render(confirmationTmpl, d) }

// DisputeEmail renders the contractor dispute notification body.
func DisputeEmail(d DisputeEmailData) (string, error) { return render(disputeTmpl, d) }
