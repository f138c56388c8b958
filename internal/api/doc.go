// Package api holds the request and response types of the token API and the
// mapping from errors to responses.
//
// **error handling**
// Handlers report failures as *APIError values created with the New* functions.
// Each error code maps to one HTTP status (see StatusFor). The response body
// is always {"errors": [...]}. For token and signature failures the list
// holds the broker's failure messages unchanged, in order.
// Use RespondWithErrorResponse() to log the error and send the response.
package api
