//go:build tools
// +build tools

// Package tools pins development tooling that is installed with
// `go install` rather than tracked in go.mod, since nothing at runtime
// imports it.
package tools

// Tooling used during development:
//
// mockgen - generates the repository mocks under internal/mocks
//   Install: go install go.uber.org/mock/mockgen@v0.6.0
//
// air - live reload while iterating on handlers locally
//   Install: go install github.com/air-verse/air@v1.63.0
