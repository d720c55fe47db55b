// Package shared holds cross-cutting helpers that belong to no single
// domain or architectural layer.
//
// # Structure
//
// - testutil: testing utilities shared by package tests
//
// The package must stay free of business logic and of dependencies on other
// internal packages, so anything may import it without cycles.
package shared
