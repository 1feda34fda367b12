// Package export writes a conversation to a file format meant for people.
package export

import (
	"bytes"
	"html/template"
	"io"
	"strings"
	textTemplate "text/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"

	"github.com/go-go-golems/pleader/pkg/conversation"
)

type Format string

const (
	FormatTXT      Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

func Formats() []Format {
	return []Format{FormatTXT, FormatMarkdown, FormatHTML}
}

func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if s == "markdown" {
		s = string(FormatMarkdown)
	}
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%q", s)
}

type Exporter struct {
	location *time.Location
}

type Option func(*Exporter)

// WithLocation sets the time zone timestamps are printed in.
func WithLocation(loc *time.Location) Option {
	return func(e *Exporter) {
		e.location = loc
	}
}

func NewExporter(options ...Option) *Exporter {
	ret := &Exporter{location: time.Local}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (e *Exporter) Export(w io.Writer, chat *conversation.Conversation, format Format) error {
	data := e.templateData(chat)

	var err error
	switch format {
	case FormatTXT:
		err = txtTemplate.Execute(w, data)
	case FormatMarkdown:
		err = mdTemplate.Execute(w, data)
	case FormatHTML:
		err = e.exportHTML(w, data)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
	if err != nil {
		return errors.Wrapf(err, "could not export chat as %s", format)
	}

	log.Debug().Str("format", string(format)).Int("messages", len(data.Messages)).Msg("exported chat")
	return nil
}

type messageData struct {
	Label   string
	Time    string
	Heading string
	Content string
	HTML    template.HTML
}

type exportData struct {
	Title    string
	Date     string
	Messages []messageData
}

func (e *Exporter) templateData(chat *conversation.Conversation) *exportData {
	ret := &exportData{Title: chat.Title}
	if ret.Title == "" {
		ret.Title = "Untitled Chat"
	}
	if !chat.CreatedAt.IsZero() {
		ret.Date = chat.CreatedAt.In(e.location).Format("January 02, 2006 at 03:04 PM")
	}
	for _, m := range chat.Messages {
		md := messageData{
			Label:   "Pleader AI",
			Content: m.Content,
		}
		if m.IsUser() {
			md.Label = "You"
		}
		if !m.Timestamp.IsZero() {
			md.Time = m.Timestamp.In(e.location).Format("03:04 PM")
		}
		md.Heading = strings.ToUpper(md.Label)
		if md.Time != "" {
			md.Heading += " (" + md.Time + ")"
		}
		ret.Messages = append(ret.Messages, md)
	}
	return ret
}

func (e *Exporter) exportHTML(w io.Writer, data *exportData) error {
	md := goldmark.New()
	for i := range data.Messages {
		var buf bytes.Buffer
		if err := md.Convert([]byte(data.Messages[i].Content), &buf); err != nil {
			return errors.Wrap(err, "could not render message")
		}
		// goldmark escapes raw HTML unless WithUnsafe is set
		data.Messages[i].HTML = template.HTML(buf.String())
	}
	return htmlTemplate.Execute(w, data)
}

const txtSource = `{{ repeat 60 "=" }}
PLEADER AI - CHAT EXPORT
{{ repeat 60 "=" }}

Chat: {{ .Title }}
Date: {{ .Date }}

{{ repeat 60 "-" }}
{{ range .Messages }}
{{ .Heading }}
{{ repeat (len .Heading) "-" }}
{{ .Content }}

{{ end }}`

const mdSource = `# {{ .Title }}
{{ if .Date }}
_{{ .Date }}_
{{ end }}{{ range .Messages }}
**{{ .Label }}**{{ if .Time }} ({{ .Time }}){{ end }}

{{ trim .Content }}

---
{{ end }}`

const htmlSource = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
</head>
<body>
<h1>Pleader AI - Chat Export</h1>
<p><b>Chat:</b> {{ .Title }}<br><b>Date:</b> {{ .Date }}</p>
{{ range .Messages -}}
<section class="message">
<h2>{{ .Label }}{{ if .Time }} ({{ .Time }}){{ end }}</h2>
{{ .HTML }}
</section>
{{ end -}}
</body>
</html>
`

var (
	txtTemplate  = textTemplate.Must(textTemplate.New("txt").Funcs(sprig.TxtFuncMap()).Parse(txtSource))
	mdTemplate   = textTemplate.Must(textTemplate.New("md").Funcs(sprig.TxtFuncMap()).Parse(mdSource))
	htmlTemplate = template.Must(template.New("html").Funcs(sprig.HtmlFuncMap()).Parse(htmlSource))
)
