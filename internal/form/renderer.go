// internal/form/renderer.go
//
// Onboard – web form: HTML renderer.
//
// Context
//   Converts the FormDef into safe, accessible HTML markup.  The renderer
//   applies HTML5 hint attributes, writes current values (query pre-fill on
//   GET, the posted values on a re-render), places inline field errors next
//   to their inputs, shows the submission banner, and injects the CSRF token
//   and render-timestamp hidden inputs.
//
// Workflow
//   •  RenderPage writes a complete HTML document around renderFields.
//   •  writeField emits one control wrapped in <div class="form-field">.
//      Each input gets id="fld-{name}"; its error span gets id="err-{name}"
//      and is linked with aria-describedby when set.
//   •  The page shell is an html/template, so everything outside the field
//      markup is escaped by the template engine.
//
// Style
//   Output HTML is deliberately plain – no framework classes – so the page
//   can be styled via element selectors or the few class hooks below.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/AdeptTravel/adept-onboard/internal/onboarding"
	"github.com/AdeptTravel/adept-onboard/internal/submit"
)

// Page bundles everything one render needs.
type Page struct {
	Def *FormDef
	// Values holds the current field values keyed by field name.
	Values url.Values
	// Feedback drives the banner and inline errors.  The zero value shows
	// neither.
	Feedback submit.Feedback
	// Token is the CSRF token for the hidden input.
	Token string
	// Now stamps render_ts and resolves min: today on date inputs.
	Now time.Time
	// Busy disables the submit button while a submission is in flight.
	Busy bool
}

var shell = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<main class="onboard">
<h1>{{.Title}}</h1>
{{- if .Intro}}
<p class="intro">{{.Intro}}</p>
{{- end}}
{{- if .Banner}}
<div class="banner banner-{{.BannerKind}}" role="{{if eq .BannerKind "success"}}status{{else}}alert{{end}}">{{.Banner}}</div>
{{- end}}
<form method="post" action="/onboarding" novalidate>
{{.Fields}}
<button type="submit"{{if .Busy}} disabled aria-busy="true"{{end}}>{{if .Busy}}Submitting…{{else}}{{.Submit}}{{end}}</button>
</form>
</main>
</body>
</html>
`))

type shellData struct {
	Title, Intro, Submit string
	Banner, BannerKind   string
	Fields               template.HTML
	Busy                 bool
}

// RenderPage writes the full onboarding page to w.
func RenderPage(w io.Writer, p Page) error {
	fields, err := renderFields(p)
	if err != nil {
		return err
	}

	data := shellData{
		Title:  p.Def.Title,
		Intro:  p.Def.Intro,
		Submit: p.Def.Submit,
		Fields: fields,
		Busy:   p.Busy,
	}
	switch p.Feedback.Kind {
	case submit.FeedbackSuccess:
		data.Banner, data.BannerKind = p.Feedback.Message, "success"
	case submit.FeedbackInvalid, submit.FeedbackFailed:
		data.Banner, data.BannerKind = p.Feedback.Message, "error"
	}
	return shell.Execute(w, data)
}

// renderFields returns the markup of every field plus the hidden inputs.
func renderFields(p Page) (template.HTML, error) {
	var buf bytes.Buffer
	buf.WriteString(`<div class="onboard-form">` + "\n")

	for i := range p.Def.Fields {
		f := &p.Def.Fields[i]
		if err := writeField(&buf, f, p.Values[f.Name], p.Feedback.FieldMessage(f.Name), p.Now); err != nil {
			return "", err
		}
	}

	buf.WriteString(`<input type="hidden" name="csrf_token" value="` + html.EscapeString(p.Token) + `">` + "\n")
	buf.WriteString(`<input type="hidden" name="render_ts" value="` + strconv.FormatInt(p.Now.UnixMicro(), 10) + `">` + "\n")
	buf.WriteString(`</div>`)
	return template.HTML(buf.String()), nil
}

// writeField emits HTML for an individual field into buf.  vals holds the
// current values (several for checkboxes), errMsg the inline error.
func writeField(buf *bytes.Buffer, f *FieldDef, vals []string, errMsg string, now time.Time) error {
	name := html.EscapeString(f.Name)
	val := ""
	if len(vals) > 0 {
		val = vals[0]
	}

	class := "form-field"
	if errMsg != "" {
		class += " has-error"
	}
	buf.WriteString(`<div class="` + class + `">` + "\n")

	// Shared attributes
	aria := ""
	if errMsg != "" {
		aria = ` aria-invalid="true" aria-describedby="err-` + name + `"`
	}

	switch f.Type {
	case "text", "email", "number", "date":
		buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")
		buf.WriteString(`<input id="fld-` + name + `" name="` + name + `" type="` + f.Type + `"` + aria)
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
		}
		if f.Required {
			buf.WriteString(` required`)
		}
		if f.MinLength > 0 {
			buf.WriteString(` minlength="` + strconv.Itoa(f.MinLength) + `"`)
		}
		if f.MaxLength > 0 {
			buf.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
		}
		if f.Pattern != "" {
			buf.WriteString(` pattern="` + html.EscapeString(f.Pattern) + `"`)
		}
		if minAttr := resolveMin(f, now); minAttr != "" {
			buf.WriteString(` min="` + html.EscapeString(minAttr) + `"`)
		}
		if f.Max != "" {
			buf.WriteString(` max="` + html.EscapeString(f.Max) + `"`)
		}
		if f.Step != "" {
			buf.WriteString(` step="` + html.EscapeString(f.Step) + `"`)
		}
		if val != "" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case "checkbox":
		checked := ""
		if parseBool(val) {
			checked = ` checked`
		}
		buf.WriteString(`<input id="fld-` + name + `" name="` + name + `" type="checkbox" value="true"` + checked + aria)
		if f.Required {
			buf.WriteString(` required`)
		}
		buf.WriteString(`>` + "\n")
		buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")

	case "checkboxes":
		picked := make(map[string]bool, len(vals))
		for _, v := range vals {
			picked[v] = true
		}
		buf.WriteString(`<fieldset id="fld-` + name + `"` + aria + `>` + "\n")
		buf.WriteString(`<legend>` + html.EscapeString(f.Label) + `</legend>` + "\n")
		for i, opt := range f.Options {
			optID := fmt.Sprintf("fld-%s-%d", name, i)
			checked := ""
			if picked[opt] {
				checked = ` checked`
			}
			buf.WriteString(`<div class="checkbox-option">` + "\n")
			buf.WriteString(`<input id="` + optID + `" name="` + name + `" type="checkbox" value="` + html.EscapeString(opt) + `"` + checked + `>` + "\n")
			buf.WriteString(`<label for="` + optID + `">` + html.EscapeString(opt) + `</label>` + "\n")
			buf.WriteString(`</div>` + "\n")
		}
		buf.WriteString(`</fieldset>` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	if f.Help != "" {
		buf.WriteString(`<small class="help">` + html.EscapeString(f.Help) + `</small>` + "\n")
	}
	buf.WriteString(`<span class="error" id="err-` + name + `" aria-live="polite">` + html.EscapeString(errMsg) + `</span>` + "\n")
	buf.WriteString(`</div>` + "\n")
	return nil
}

// resolveMin expands the “today” keyword on date inputs.
func resolveMin(f *FieldDef, now time.Time) string {
	if f.Type == "date" && f.Min == "today" {
		return now.Format(onboarding.DateLayout)
	}
	return f.Min
}
