// Package docs holds the OpenAPI document served at /swagger. It mirrors the
// swag annotations on the handlers; regenerate with
//
//	swag init -g cmd/server/main.go -o docs
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
        "/chats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns a page of the caller's chats, most recently active first. Supports weak ETag via If-None-Match.",
                "produces": ["application/json"],
                "tags": ["Chats"],
                "summary": "List chats (paginated)",
                "operationId": "listChats",
                "parameters": [
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListChatsResponse"}, "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}},
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handlers.RateLimitResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the existing chat between the caller and participantId, or creates it (201).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chats"],
                "summary": "Open a chat with another user",
                "operationId": "createChat",
                "parameters": [
                    {"description": "Counterpart", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "Existing chat", "schema": {"$ref": "#/definitions/domain.Chat"}},
                    "201": {"description": "Created chat", "schema": {"$ref": "#/definitions/domain.Chat"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Participant not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Deletes the listed chats the caller participates in, with their messages. Other IDs are ignored.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chats"],
                "summary": "Delete selected chats",
                "operationId": "deleteChats",
                "parameters": [
                    {"description": "Chats to delete", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.DeleteChatsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.DeleteChatsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/chats/all": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Deletes every chat the caller participates in, with their messages.",
                "produces": ["application/json"],
                "tags": ["Chats"],
                "summary": "Delete all chats",
                "operationId": "deleteAllChats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.DeleteChatsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/messages/{chatId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the chat's messages in chronological order. Only participants may read them; for anyone else the chat does not exist.",
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "List messages in a chat",
                "operationId": "listMessages",
                "parameters": [
                    {"type": "string", "description": "Chat ID", "name": "chatId", "in": "path", "required": true},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 200, "minimum": 1, "type": "integer", "default": 50, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListMessagesResponse"}, "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}},
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Chat not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/check": {
            "get": {
                "description": "Reports whether the calling address is an active admin.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Check admin status",
                "operationId": "adminCheck",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AdminCheckResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Dashboard statistics",
                "operationId": "adminStats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/repo.Stats"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/admins": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List active admins",
                "operationId": "listAdmins",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Admin"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "description": "A previously removed admin for the same address is reactivated.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Grant admin privilege to an address",
                "operationId": "addAdmin",
                "parameters": [
                    {"description": "Admin", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AddAdminRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.AddAdminResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/admins/{id}": {
            "delete": {
                "description": "Soft-deletes the admin; the record is kept for audit.",
                "tags": ["Admin"],
                "summary": "Revoke an admin",
                "operationId": "removeAdmin",
                "parameters": [
                    {"type": "string", "description": "Admin ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/blocked-countries": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List blocked countries",
                "operationId": "listBlockedCountries",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.BlockedCountry"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Block a country",
                "operationId": "blockCountry",
                "parameters": [
                    {"description": "Country", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.BlockCountryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.BlockCountryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/blocked-countries/{id}": {
            "delete": {
                "tags": ["Admin"],
                "summary": "Unblock a country",
                "operationId": "unblockCountry",
                "parameters": [
                    {"type": "string", "description": "Block-list entry ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Admin": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "ip": {"type": "string"},
                "name": {"type": "string"},
                "active": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "createdBy": {"type": "string"}
            }
        },
        "domain.BlockedCountry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "blockedAt": {"type": "string"},
                "blockedBy": {"type": "string"}
            }
        },
        "domain.MessageSnapshot": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "chatId": {"type": "string"},
                "senderId": {"type": "string"},
                "content": {"type": "string"},
                "type": {"type": "string"},
                "timestamp": {"type": "string"},
                "status": {"type": "string"},
                "readBy": {"type": "array", "items": {"type": "string"}}
            }
        },
        "domain.Chat": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "participants": {"type": "array", "items": {"type": "string"}},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"},
                "lastMessage": {"$ref": "#/definitions/domain.MessageSnapshot"}
            }
        },
        "domain.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "chatId": {"type": "string"},
                "senderId": {"type": "string"},
                "content": {"type": "string"},
                "type": {"type": "string", "enum": ["text", "image", "video", "audio"]},
                "timestamp": {"type": "string"},
                "status": {"type": "string", "enum": ["sent", "delivered", "read"]},
                "readBy": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.AddAdminRequest": {
            "type": "object",
            "properties": {
                "ip": {"type": "string", "example": "203.0.113.7"},
                "name": {"type": "string", "example": "Night shift"}
            }
        },
        "handlers.AddAdminResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "admin": {"$ref": "#/definitions/domain.Admin"}
            }
        },
        "handlers.AdminCheckResponse": {
            "type": "object",
            "properties": {
                "isAdmin": {"type": "boolean"},
                "ip": {"type": "string", "example": "203.0.113.7"}
            }
        },
        "handlers.BlockCountryRequest": {
            "type": "object",
            "properties": {
                "countryCode": {"type": "string", "example": "KP"},
                "countryName": {"type": "string", "example": "North Korea"}
            }
        },
        "handlers.BlockCountryResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "country": {"$ref": "#/definitions/domain.BlockedCountry"}
            }
        },
        "handlers.CreateChatRequest": {
            "type": "object",
            "properties": {
                "participantId": {"type": "string", "example": "6f1c2f0e-8d1e-4b8a-9a51-3c1f0e2a7b44"}
            }
        },
        "handlers.DeleteChatsRequest": {
            "type": "object",
            "properties": {
                "chatIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.DeleteChatsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "deleted": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "chat_not_found"},
                "message": {"type": "string", "example": "chat not found"}
            }
        },
        "handlers.ListChatsResponse": {
            "type": "object",
            "properties": {
                "chats": {"type": "array", "items": {"$ref": "#/definitions/domain.Chat"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.ListMessagesResponse": {
            "type": "object",
            "properties": {
                "messages": {"type": "array", "items": {"$ref": "#/definitions/domain.Message"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.RateLimitResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string", "example": "RATE_LIMIT_MINUTE"},
                "message": {"type": "string", "example": "per-minute request limit exceeded"},
                "retry_after": {"type": "integer", "example": 60}
            }
        },
        "repo.Stats": {
            "type": "object",
            "properties": {
                "totalUsers": {"type": "integer"},
                "totalChats": {"type": "integer"},
                "totalMessages": {"type": "integer"},
                "totalAdmins": {"type": "integer"},
                "blockedCountries": {"type": "integer"},
                "onlineUsers": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the JWT.",
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
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Messenger API",
	Description:      "Chats, message history and administration for the realtime messenger. Live delivery and presence run over the WebSocket at /ws.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
