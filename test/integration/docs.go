// Package integration contains end-to-end tests for oms-authenticator.
//
// Each test starts the server in-process against a fake gis-v3 authority
// (httptest) and a shell script standing in for the external signer, then
// drives it over HTTP. The token, authority and signer packages are tested
// separately; failures there cascade into these tests.
package integration
