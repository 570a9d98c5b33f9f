// Package errors defines the application error taxonomy.
//
// Every failure surfaced by a service or handler is an *AppError carrying a
// stable machine-readable code, a human-readable message, and the HTTP status
// the transport layer should map it to. Internal representation details never
// leak through an AppError.
package errors
