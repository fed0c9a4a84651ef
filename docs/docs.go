// Package docs registers the OpenAPI description served at /swagger-doc.json.
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
    "paths": {
        "/tasks": {
            "get": {"tags": ["tasks"], "summary": "List tasks matching the current filters", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ListTasksResponse"}}}},
            "post": {"tags": ["tasks"], "summary": "Create a task", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateTaskRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.TaskResponse"}}, "400": {"description": "Bad Request"}}}
        },
        "/tasks/all": {
            "get": {"tags": ["tasks"], "summary": "List every live task, ignoring filters",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ListTasksResponse"}}}}
        },
        "/tasks/{id}": {
            "get": {"tags": ["tasks"], "summary": "Get a task by ID",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TaskResponse"}}, "404": {"description": "Not Found"}}},
            "patch": {"tags": ["tasks"], "summary": "Edit label, category or priority",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateTaskRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TaskResponse"}}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["tasks"], "summary": "Delete a task; it can be restored until undo_deadline",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PendingResponse"}}, "404": {"description": "Not Found"}}}
        },
        "/tasks/{id}/toggle": {
            "post": {"tags": ["tasks"], "summary": "Flip the completion flag",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TaskResponse"}}, "404": {"description": "Not Found"}}}
        },
        "/tasks/undo": {
            "post": {"tags": ["tasks"], "summary": "Restore the most recently deleted task",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TaskResponse"}}, "409": {"description": "Nothing to undo"}}}
        },
        "/tasks/pending": {
            "get": {"tags": ["tasks"], "summary": "Show the task awaiting undo",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PendingResponse"}}, "204": {"description": "Nothing pending"}}}
        },
        "/tasks/stats": {
            "get": {"tags": ["tasks"], "summary": "Counts of live tasks", "responses": {"200": {"description": "OK"}}}
        },
        "/filters": {
            "get": {"tags": ["filters"], "summary": "Current filter criteria",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.FiltersResponse"}}}},
            "put": {"tags": ["filters"], "summary": "Replace filter criteria",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dto.FiltersRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.FiltersResponse"}}, "400": {"description": "Bad Request"}}},
            "delete": {"tags": ["filters"], "summary": "Show every task again",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.FiltersResponse"}}}}
        },
        "/categories": {
            "get": {"tags": ["tasks"], "summary": "Categories offered by default", "responses": {"200": {"description": "OK"}}}
        },
        "/events": {
            "get": {"tags": ["tasks"], "summary": "Server-sent stream of task changes", "produces": ["text/event-stream"],
                "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "dto.CreateTaskRequest": {"type": "object", "required": ["label"], "properties": {
            "label": {"type": "string", "maxLength": 500}, "category": {"type": "string", "maxLength": 60},
            "priority": {"type": "string", "enum": ["Low", "Medium", "High", "Urgent"]}}},
        "dto.UpdateTaskRequest": {"type": "object", "properties": {
            "label": {"type": "string", "maxLength": 500}, "category": {"type": "string", "maxLength": 60},
            "priority": {"type": "string", "enum": ["Low", "Medium", "High", "Urgent"]}}},
        "dto.FiltersRequest": {"type": "object", "properties": {
            "priority": {"type": "string", "enum": ["All", "Low", "Medium", "High", "Urgent"]}, "category": {"type": "string"}}},
        "dto.FiltersResponse": {"type": "object", "properties": {"priority": {"type": "string"}, "category": {"type": "string"}}},
        "dto.TaskResponse": {"type": "object", "properties": {
            "id": {"type": "integer"}, "label": {"type": "string"}, "checked": {"type": "boolean"},
            "category": {"type": "string"}, "priority": {"type": "string"}}},
        "dto.ListTasksResponse": {"type": "object", "properties": {
            "items": {"type": "array", "items": {"$ref": "#/definitions/dto.TaskResponse"}},
            "filters": {"$ref": "#/definitions/dto.FiltersResponse"}}},
        "dto.PendingResponse": {"type": "object", "properties": {
            "task": {"$ref": "#/definitions/dto.TaskResponse"}, "undo_deadline": {"type": "string", "format": "date-time"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Task List API",
	Description:      "Personal task list with filters and undo-delete.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
