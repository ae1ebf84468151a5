package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	"io"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

const (
	VerifyEmail    = "verify_email"
	ForgotPassword = "forgot_password"
)

// Brand holds the sender-side fields shared by every template.
type Brand struct {
	AppName     string
	CompanyName string
	SupportURL  string
}

// EmailData defines standard fields for email templates.
type EmailData struct {
	Brand
	Name          string
	Email         string
	Code          string
	ExpiresAt     time.Time
	ExpiresAtText string
}

// Option adjusts EmailData.
type Option func(*EmailData)

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
	}
}

// NewOTPData builds the payload for verify_email and forgot_password.
func NewOTPData(b Brand, name, email, code string, opts ...Option) EmailData {
	d := EmailData{Brand: b, Name: name, Email: email, Code: code}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

func baseFuncs() map[string]any {
	return map[string]any{
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

// Both sets are parsed once from the embedded files; a broken template fails
// at init rather than on the first send.
var (
	htmlSet = htmpl.Must(htmpl.New("html").Funcs(htmpl.FuncMap(baseFuncs())).ParseFS(FS, "*.html.tmpl"))
	textSet = texttpl.Must(texttpl.New("text").Funcs(texttpl.FuncMap(baseFuncs())).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl"))
)

type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

func execute(set executor, filename string, data any) (string, error) {
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, filename, data); err != nil {
		return "", fmt.Errorf("render %q: %w", filename, err)
	}
	return buf.String(), nil
}

// Render produces subject, text and html for name from
// <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
func Render(name string, data any) (subject, text, html string, err error) {
	if subject, err = execute(textSet, name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = execute(textSet, name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	if html, err = execute(htmlSet, name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
