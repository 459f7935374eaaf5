package core

import "text/template"

// hostTemplate renders one Go file declaring every type of a SchemaPlan.
// Its output is passed through go/format, so spacing here is not significant.
var hostTemplate = template.Must(template.New("kvo-host").Funcs(template.FuncMap{
	"camel": CamelCaseKey,
}).Parse(hostTemplateText))

const hostTemplateText = `// Code generated by genkvo. DO NOT EDIT.
{{- if .Source}}
// Source: {{.Source}}
{{- end}}

package {{.Package}}

import (
	"github.com/valter-silva-au/gokvo/pkg/kvo"
{{- range .Imports}}
	{{.Alias}} {{printf "%q" .Path}}
{{- end}}
)
{{range $t := .Types}}
// {{$t.Name}} is an observable object. Read a property with its getter,
// change it with its setter and watch it with its SubscribeTo method.
type {{$t.Name}} struct {
{{- range $p := $t.Properties}}
	prop{{camel $p.Key}} *kvo.Property[{{$p.Type}}]
	subs{{camel $p.Key}} kvo.Subscribers[{{$p.Type}}]
{{- end}}
}

// New{{$t.Name}} returns a {{$t.Name}} holding the initial values of its schema.
func New{{$t.Name}}() *{{$t.Name}} {
	o := &{{$t.Name}}{}
{{- range $p := $t.Properties}}
	o.prop{{camel $p.Key}} = kvo.NewProperty[{{$p.Type}}]({{$p.InitialValue}}, &o.subs{{camel $p.Key}})
{{- end}}
	return o
}
{{range $p := $t.Properties}}
// {{camel $p.Key}} returns the value of key "{{$p.Key}}".
func (o *{{$t.Name}}) {{camel $p.Key}}() {{$p.Type}} {
	return o.prop{{camel $p.Key}}.Get()
}

// Set{{camel $p.Key}} replaces the value of key "{{$p.Key}}" and notifies
// its subscribers with the previous value.
func (o *{{$t.Name}}) Set{{camel $p.Key}}(v {{$p.Type}}) error {
	return o.prop{{camel $p.Key}}.Update(v)
}

// SubscribeTo{{camel $p.Key}} registers fn to run after every change of key
// "{{$p.Key}}". The returned func removes fn again.
func (o *{{$t.Name}}) SubscribeTo{{camel $p.Key}}(fn func(old {{$p.Type}})) func() {
	return o.subs{{camel $p.Key}}.Subscribe(fn)
}
{{end}}
{{- end}}
`
