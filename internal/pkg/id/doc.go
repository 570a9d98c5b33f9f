// Package id generates prefixed aggregate identifiers.
//
// Identifiers are opaque strings of the form "<prefix>_<random>", e.g.
// "prj_x8Kd...". The prefix makes IDs self-describing in logs and support
// tooling; the random part is 24 characters from a 62-symbol alphabet.
package id
