/*
Package mock resolves client requests locally without a running backend.

A Resolver maps a (method, path) Key to a HandlerFunc that synthesizes the
response payload, with an optional table of static JSON fixtures behind it.
Transport exposes the resolver as an http.RoundTripper for the client
dispatcher, and Handler exposes it as an http.Handler for the dev server.
Both mark their responses with the X-Mock-Response header and report a miss
as a 404 carrying {"error": "Mock endpoint not found: <path>"}.
*/
package mock
