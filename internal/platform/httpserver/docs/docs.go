// Package docs registers the swagger spec served at /swagger/doc.json.
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
        "/v1/registry": {
            "get": {
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Fetch the registry snapshot",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Initialize the registry",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/registry/operators": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Add or remove operators",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/registry/fee-rate": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Set the per-asset fee rate",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/registry/fees/withdraw": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Drain the custody account",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/v1/campaigns": {
            "get": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "List campaigns",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Create a campaign",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/campaigns/{campaign_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Fetch a campaign",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Update a pending campaign",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        },
        "/v1/campaigns/{campaign_id}/claims": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Claim one asset in full",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Almoner Airdrop Registry API",
	Description:      "Campaign escrow and distribution registry.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
