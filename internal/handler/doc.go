// Package handler contains the Fiber HTTP handlers for the AppForge API.
//
// Handlers are thin: they extract the tenant from the request context,
// parse and validate the body, call one service method, and translate the
// returned error into a JSON response. All state machine rules live in the
// domain and service layers.
//
// Every route except /webhooks/payhere and the health probes requires a
// tenant bearer token. The webhook route authenticates through the
// gateway's MD5 signature instead.
package handler
