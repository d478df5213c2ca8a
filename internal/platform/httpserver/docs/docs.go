// Package docs registers the OpenAPI document served under /swagger/.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Root"],
                "summary": "Service info",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/InfoResponse"}}
                }
            }
        },
        "/api/vote": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["User Endpoints"],
                "summary": "Submit an occupant vote",
                "parameters": [
                    {"description": "vote", "name": "vote", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/VoteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/zones": {
            "get": {
                "produces": ["application/json"],
                "tags": ["User Endpoints"],
                "summary": "List zones",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ZoneListResponse"}}
                }
            }
        },
        "/api/zones/{zone_id}/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["User Endpoints"],
                "summary": "Zone temperatures",
                "parameters": [{"type": "string", "description": "zone id", "name": "zone_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ZoneResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/zones/{zone_id}/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["User Endpoints"],
                "summary": "Vote counts in the current window",
                "parameters": [{"type": "string", "description": "zone id", "name": "zone_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VoteStatsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/admin/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin Panel"],
                "summary": "Monitoring history for every zone",
                "parameters": [{"type": "integer", "description": "look-back in hours (default 1, max 168)", "name": "hours", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HistoryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/admin/zones/{zone_id}/cycle": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Admin Panel"],
                "summary": "Run one recommendation cycle now",
                "parameters": [{"type": "string", "description": "zone id", "name": "zone_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CycleResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/admin/cycles": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Admin Panel"],
                "summary": "Sweep every zone",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SweepResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "InfoResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "service": {"type": "string"},
                "docs_url": {"type": "string"},
                "monitoring_panel_url": {"type": "string"},
                "metrics_url": {"type": "string"}
            }
        },
        "VoteRequest": {
            "type": "object",
            "required": ["user_id", "zone_id", "vote_value"],
            "properties": {
                "user_id": {"type": "string", "format": "uuid"},
                "zone_id": {"type": "string", "maxLength": 64},
                "vote_value": {"type": "integer", "enum": [-1, 0, 1]}
            }
        },
        "VoteResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "vote_id": {"type": "string"},
                "user_id": {"type": "string"},
                "zone_id": {"type": "string"},
                "vote_value": {"type": "integer"},
                "created_at": {"type": "string", "format": "date-time"},
                "cycle_dispatched": {"type": "boolean"}
            }
        },
        "ZoneResponse": {
            "type": "object",
            "properties": {
                "zone_id": {"type": "string"},
                "name": {"type": "string"},
                "current_temp": {"type": "number"},
                "recommended_temp": {"type": "number"}
            }
        },
        "ZoneListResponse": {
            "type": "array",
            "items": {"$ref": "#/definitions/ZoneResponse"}
        },
        "VoteStatsResponse": {
            "type": "object",
            "properties": {
                "zone_id": {"type": "string"},
                "-1": {"type": "integer"},
                "0": {"type": "integer"},
                "1": {"type": "integer"},
                "total": {"type": "integer"},
                "window_minutes": {"type": "integer"},
                "since": {"type": "string", "format": "date-time"}
            }
        },
        "HistoryPoint": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "timestamp": {"type": "string", "format": "date-time"},
                "current_temp": {"type": "number"},
                "recommended_temp": {"type": "number"}
            }
        },
        "ZoneHistoryItem": {
            "type": "object",
            "properties": {
                "zone_id": {"type": "string"},
                "name": {"type": "string"},
                "records": {"type": "array", "items": {"$ref": "#/definitions/HistoryPoint"}}
            }
        },
        "HistoryResponse": {
            "type": "object",
            "properties": {
                "hours": {"type": "integer"},
                "zones": {"type": "array", "items": {"$ref": "#/definitions/ZoneHistoryItem"}}
            }
        },
        "CycleResponse": {
            "type": "object",
            "properties": {
                "zone_id": {"type": "string"},
                "status": {"type": "string", "enum": ["committed", "insufficient_votes", "no_weight", "insignificant_change"]},
                "vote_count": {"type": "integer"},
                "frequent_votes": {"type": "integer"},
                "score": {"type": "number"},
                "alpha": {"type": "number"},
                "delta": {"type": "number"},
                "previous_recommended": {"type": "number"},
                "recommended_temp": {"type": "number"},
                "current_temp": {"type": "number"},
                "history_id": {"type": "integer"},
                "actuated": {"type": "boolean"},
                "actuation_error": {"type": "string"}
            }
        },
        "SweepResponse": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/CycleResponse"}},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ThermaSense API",
	Description:      "Occupant votes in, thermostat setpoint recommendations out.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
