// Package domain provides the spec model shared by every structure component:
// task requests and specs, gate decisions, workflows, sessions, the clarify
// exchange, audit records and the kernel input/output envelope.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case.
package domain
