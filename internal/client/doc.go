/*
Package client provides a typed HTTP client for the verification API.

A Client built with UseMock set never touches the network: every request is
answered by a mock.Resolver through a mock.Transport under the /mock base
path. Otherwise requests go to the /api base path with the configured
http.Client. Both modes report non-2xx responses as *ResponseError with the
same shape; ResponseError.Mock tells a synthesized miss from a real 404.
*/
package client
