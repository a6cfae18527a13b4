// Package docs registers the OpenAPI description served at /swagger/*.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "token and user"}, "401": {"description": "authentication failed"}, "429": {"description": "too many attempts"}}
            }
        },
        "/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Logout", "responses": {"204": {"description": "cookie cleared"}}}
        },
        "/auth/me": {
            "get": {"tags": ["auth"], "summary": "Current account", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "account"}, "401": {"description": "not authenticated"}}}
        },
        "/auth/password": {
            "post": {"tags": ["auth"], "summary": "Change password", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "changed"}, "401": {"description": "not authenticated"}, "403": {"description": "current secret does not match"}}}
        },
        "/accounts": {
            "post": {"tags": ["accounts"], "summary": "Create account", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "created"}, "403": {"description": "forbidden"}, "409": {"description": "exists"}}}
        },
        "/reports/scope": {
            "get": {"tags": ["reports"], "summary": "Reporting scope of the caller", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "scope"}, "403": {"description": "forbidden"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Revenue Tracker API",
	Description:      "Session issuance and access control for the revenue tracker.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
