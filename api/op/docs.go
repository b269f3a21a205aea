// Package op holds the generated OpenAPI documentation served at /swagger/.
package op

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "OpenAuth Lab",
            "url": "https://github.com/openauthlab/opd"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/.well-known/openid-configuration": {
            "get": {
                "produces": ["application/json"],
                "tags": ["well-known"],
                "summary": "Provider Metadata",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/op/authorize": {
            "get": {
                "produces": ["text/html"],
                "tags": ["OP"],
                "summary": "Authorization Endpoint",
                "parameters": [
                    {"type": "string", "name": "response_type", "in": "query", "required": true},
                    {"type": "string", "name": "client_id", "in": "query", "required": true},
                    {"type": "string", "name": "redirect_uri", "in": "query", "required": true},
                    {"type": "string", "name": "scope", "in": "query"},
                    {"type": "string", "name": "state", "in": "query"},
                    {"type": "string", "name": "nonce", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "login page"},
                    "302": {"description": "redirect with error params"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/op/token": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["OP"],
                "summary": "Token Endpoint",
                "parameters": [
                    {"type": "string", "name": "grant_type", "in": "formData", "required": true},
                    {"type": "string", "name": "code", "in": "formData", "required": true},
                    {"type": "string", "name": "redirect_uri", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "access_token, token_type, expires_in, id_token"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/op/userinfo": {
            "get": {
                "produces": ["application/json"],
                "tags": ["OP"],
                "summary": "UserInfo Endpoint",
                "parameters": [
                    {"type": "string", "name": "Authorization", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "scope-gated profile claims"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/op/jwks": {
            "get": {
                "produces": ["application/json"],
                "tags": ["well-known"],
                "summary": "Get JWKS",
                "responses": {
                    "200": {"description": "The JSON Web Key Set"}
                }
            }
        },
        "/idp/login": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["IDP"],
                "summary": "End-User Login",
                "parameters": [
                    {"type": "string", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "op GRANT with the consent delta"},
                    "302": {"description": "redirect to client callback with code"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/idp/consent": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["IDP"],
                "summary": "Consent Approval",
                "parameters": [
                    {"type": "string", "name": "scope", "in": "formData"}
                ],
                "responses": {
                    "302": {"description": "redirect to client callback with code"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/idp/cancel": {
            "post": {
                "tags": ["IDP"],
                "summary": "Cancel Authorization",
                "responses": {
                    "302": {"description": "redirect with access_denied"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version"}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks"},
                    "503": {"description": "service not ready"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "OpenAuth Provider API",
	Description:      "An OpenID Connect Provider implementing the OAuth2 Authorization Code flow.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
