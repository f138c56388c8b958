// Package docs registers the OpenAPI document of the token API with swag.
// The document is served at /docs/doc.json.
//
// Keep it in step with the godoc annotations of the handlers in internal/server
// (regenerate with `swag init -g cmd/oms-authenticator/main.go -o internal/docs`).
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v2/{provider}/oms/token": {
            "get": {
                "description": "Returns a session token for the connection (subject) of an order management station (owner).\nWith requestid the token acquired for that request id is returned, acquiring it if needed.\nWithout requestid any live token of the same connection and station is returned; a new one is acquired only when none exists.",
                "produces": ["application/json"],
                "tags": ["Tokens"],
                "summary": "Get a session token",
                "parameters": [
                    {"type": "string", "description": "Provider path segment", "name": "provider", "in": "path", "required": true},
                    {"type": "string", "description": "Order management station id (owner)", "name": "omsid", "in": "query", "required": true},
                    {"type": "string", "description": "Connection id (subject)", "name": "connectionid", "in": "query", "required": true},
                    {"type": "string", "description": "Request id", "name": "requestid", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.TokenResponse"}},
                    "400": {"description": "Missing query parameter", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Unknown provider", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "422": {"description": "The authority did not issue a token", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/v2/{provider}/oms/token/cached": {
            "get": {
                "description": "Returns a live cached session token for the connection and station. Never contacts the authority.",
                "produces": ["application/json"],
                "tags": ["Tokens"],
                "summary": "Look up a cached session token",
                "parameters": [
                    {"type": "string", "description": "Provider path segment", "name": "provider", "in": "path", "required": true},
                    {"type": "string", "description": "Order management station id (owner)", "name": "omsid", "in": "query", "required": true},
                    {"type": "string", "description": "Connection id (subject)", "name": "connectionid", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.TokenResponse"}},
                    "400": {"description": "Missing query parameter", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Unknown provider or no live token", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/v2/{provider}/true/token": {
            "get": {
                "description": "Returns an authority-wide token. requestid behaves as for session tokens.",
                "produces": ["application/json"],
                "tags": ["Tokens"],
                "summary": "Get an authority token",
                "parameters": [
                    {"type": "string", "description": "Provider path segment", "name": "provider", "in": "path", "required": true},
                    {"type": "string", "description": "Request id", "name": "requestid", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.TokenResponse"}},
                    "404": {"description": "Unknown provider", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "422": {"description": "The authority did not issue a token", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/v2/{provider}/signature": {
            "post": {
                "description": "Signs a base64 encoded payload with the provider certificate. The token cache is not involved.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Signatures"],
                "summary": "Sign a payload",
                "parameters": [
                    {"type": "string", "description": "Provider path segment", "name": "provider", "in": "path", "required": true},
                    {"description": "Payload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.SignatureRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SignatureResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Unknown provider", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "422": {"description": "Signing failed", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Check if the HTTP service is alive and responding.",
                "produces": ["text/plain"],
                "tags": ["Common"],
                "summary": "Health (liveness) Check",
                "responses": {"200": {"description": "OK", "schema": {"type": "string"}}}
            }
        },
        "/version": {
            "get": {
                "description": "Returns the version and build information for the service",
                "produces": ["application/json"],
                "tags": ["Common"],
                "summary": "Get version information",
                "responses": {"200": {"description": "Version information", "schema": {"$ref": "#/definitions/handlers.VersionResponse"}}}
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "errors": {"type": "array", "items": {"type": "string"}, "example": ["Query string parameter 'omsid' is required."]}
            }
        },
        "api.SignatureRequest": {
            "type": "object",
            "properties": {
                "payloadBase64": {"type": "string", "example": "eyJkb2N1bWVudCI6IjEifQ=="}
            }
        },
        "api.SignatureResponse": {
            "type": "object",
            "properties": {
                "signature": {"type": "string", "example": "MIIGxQYJKoZIhvcNAQcCoIIGtjCCBrICAQExDjAMBggqhQMHAQECAgUA"}
            }
        },
        "api.TokenResponse": {
            "type": "object",
            "properties": {
                "expires": {"type": "string", "example": "2026-01-28T20:00:00Z"},
                "requestId": {"type": "string", "example": "7d3c1c9e-8a1f-4c38-9a43-2c5e0f3c9b11"},
                "token": {"type": "string", "example": "eyJhbGciOiJSUzI1NiJ9.eyJwaWQiOiIxIn0.c2ln"}
            }
        },
        "handlers.VersionResponse": {
            "type": "object",
            "properties": {
                "buildDate": {"type": "string", "example": "2026-01-28T10:00:00Z"},
                "gitCommit": {"type": "string", "example": "3f2c1ab"},
                "service": {"type": "string", "example": "oms-authenticator"},
                "version": {"type": "string", "example": "v1.2.0"}
            }
        }
    },
    "tags": [
        {"description": "Session and authority tokens", "name": "Tokens"},
        {"description": "Detached signatures with the provider certificate", "name": "Signatures"},
        {"description": "Server API endpoints (health, version, metrics, docs)", "name": "Common"}
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "2.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "oms-authenticator",
	Description:      "oms-authenticator issues and caches access tokens for the national product-traceability authority and signs payloads with the provider certificates.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
