// Package configs provides the embedded configuration template for ctxindex.
//
// The template is embedded at build time so `ctxindex config init` works in
// every distribution. Edit ctxindex.example.yaml and rebuild to change it.
package configs

import _ "embed"

// ConfigTemplate is written by `ctxindex config init`, to the user config
// path by default or to .ctxindex.yaml with --project.
//
//go:embed ctxindex.example.yaml
var ConfigTemplate string
