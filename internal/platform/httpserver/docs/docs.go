// Package docs holds the generated OpenAPI document for the Custodia HTTP API.
// Regenerate with `swag init` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/ledger/meta": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Token metadata",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/ledger/supply": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Total supply",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/v1/ledger/accounts/{address}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Account balances",
                "parameters": [
                    {"type": "string", "name": "address", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/ledger/mint": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Mint tokens to a recipient",
                "parameters": [
                    {"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/v1/ledger/transfer": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Transfer tokens",
                "parameters": [
                    {"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/v1/ledger/airdrop": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Distribute tokens to many recipients atomically",
                "parameters": [
                    {"type": "string", "name": "X-Caller-Address", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "403": {"description": "Forbidden"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Custodia Token Ledger API",
	Description:      "Guarded fungible-asset ledger with lock, list and airdrop controls.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
