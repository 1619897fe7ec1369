// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/meetings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Meetings"],
                "summary": "List my meetings",
                "parameters": [
                    {"type": "integer", "description": "Page, from 1", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size, at most 100", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Meetings"],
                "summary": "Register a meeting",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/meetings/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Meetings"],
                "summary": "Get a meeting",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/meetings/{id}/bot": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Bot"],
                "summary": "Poll the bot service",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Bot"],
                "summary": "Send the bot to a meeting",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "502": {"description": "Bot service rejected the request"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Bot"],
                "summary": "Remove the bot from a meeting",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "No bot session"}}
            }
        },
        "/meetings/{id}/transcript": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Transcript"],
                "summary": "Get the transcript",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Transcript"],
                "summary": "Override the transcript text",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/meetings/{id}/summaries": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Summaries"],
                "summary": "Generate a summary",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/meetings/{id}/action-items/extract": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Action Items"],
                "summary": "Extract action items",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/meetings/{id}/decisions/extract": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Decisions"],
                "summary": "Extract decisions",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/meetings/{id}/followup": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Follow-up"],
                "summary": "Draft a follow-up email",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/meetings/{id}/chat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Chat"],
                "summary": "Ask about the meeting",
                "parameters": [{"type": "string", "description": "Meeting ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Meeting Intelligence API",
	Description:      "Sends a notetaker bot into online meetings and turns the recording into transcripts, summaries, action items, decisions, follow-up drafts and answers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
