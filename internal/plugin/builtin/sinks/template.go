package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/kuralabs/flowbber/internal/bundle"
	"github.com/kuralabs/flowbber/internal/plugin"
)

// templateSink renders the collected data through a text/template file.
// The template executes with the bundle as a map, so values are reached
// as {{.s1.field}} or {{index . "s1"}}.
type templateSink struct {
	Template      string `json:"template"`
	Output        string `json:"output"`
	Override      bool   `json:"override"`
	CreateParents bool   `json:"create_parents"`
}

func newTemplateSink(raw json.RawMessage) (plugin.Sink, error) {
	s := &templateSink{}
	if err := decode(raw, s); err != nil {
		return nil, err
	}
	if s.Template == "" {
		return nil, fmt.Errorf("template is required")
	}
	if s.Output == "" {
		return nil, fmt.Errorf("output is required")
	}
	return s, nil
}

func (s *templateSink) Distribute(_ context.Context, snapshot *bundle.Bundle) error {
	tpl, err := template.New(filepath.Base(s.Template)).Funcs(template.FuncMap{
		"json": func(v any) (string, error) {
			b, err := json.MarshalIndent(v, "", "    ")
			return string(b), err
		},
	}).ParseFiles(s.Template)
	if err != nil {
		return fmt.Errorf("parse template %q: %w", s.Template, err)
	}

	if err := prepareOutput(s.Output, s.Override, s.CreateParents); err != nil {
		return err
	}

	data := make(map[string]any, snapshot.Len())
	for _, key := range snapshot.Keys() {
		v, _ := snapshot.Get(key)
		data[key] = v
	}

	f, err := os.Create(s.Output)
	if err != nil {
		return fmt.Errorf("create %q: %w", s.Output, err)
	}
	if err := tpl.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("render template: %w", err)
	}
	return f.Close()
}
