// Package connection provides the HTTP client linkgate-cli uses to talk to
// a LinkGate server.
//
// Requests authenticate with an issuer key sent as "Authorization: Bearer
// <id>:<secret>". Responses use the server's JSON envelope; ParseResponse
// unwraps the data field or turns an error envelope into an *APIError.
package connection
