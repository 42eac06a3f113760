package notification

import (
	"fmt"
	"html/template"
	"strings"
)

const (
	subjectHotLead       = "New hot lead from a call"
	subjectMeetingBooked = "Meeting booked from a call"
)

// HotLeadEmailData fills the hot lead notification.
type HotLeadEmailData struct {
	ContactName  string
	BusinessName string
	Phone        string
	Summary      string
}

// MeetingBookedEmailData fills the meeting booked notification.
type MeetingBookedEmailData struct {
	ContactName  string
	BusinessName string
	Summary      string
}

var hotLeadTemplate = template.Must(template.New("hot_lead").Parse(`
<h2>New hot lead</h2>
<p>A call just qualified a hot lead{{if .ContactName}}: <strong>{{.ContactName}}</strong>{{end}}{{if .BusinessName}} ({{.BusinessName}}){{end}}.</p>
{{if .Phone}}<p>Phone: {{.Phone}}</p>{{end}}
{{if .Summary}}<p>Call summary: {{.Summary}}</p>{{end}}
<p>Follow up while it is warm.</p>
`))

var meetingBookedTemplate = template.Must(template.New("meeting_booked").Parse(`
<h2>Meeting booked</h2>
<p>A call just booked a meeting{{if .ContactName}} with <strong>{{.ContactName}}</strong>{{end}}{{if .BusinessName}} ({{.BusinessName}}){{end}}.</p>
{{if .Summary}}<p>Call summary: {{.Summary}}</p>{{end}}
<p>Check your calendar for details.</p>
`))

func renderEmailTemplate(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return b.String(), nil
}
