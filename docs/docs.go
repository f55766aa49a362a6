// Package docs is generated by swaggo/swag from the handler annotations.
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
        "/cities": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cities"],
                "summary": "List supported cities",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/types.CitySummary"}}
                    }
                }
            }
        },
        "/cities/{slug}/resolve": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cities"],
                "summary": "Resolve a free-text place against a city's gazetteer",
                "parameters": [
                    {"type": "string", "description": "City slug", "name": "slug", "in": "path", "required": true},
                    {"type": "string", "description": "Location text", "name": "q", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/city.ResolvedLocation"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/plans": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["plans"],
                "summary": "Build a day itinerary from a natural-language request",
                "parameters": [
                    {"description": "Plan request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.PlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.PlanResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/api.Response"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/itineraries/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["plans"],
                "summary": "Fetch a stored itinerary",
                "parameters": [
                    {"type": "integer", "description": "Itinerary ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Itinerary"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        }
    },
    "definitions": {
        "api.Response": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "api.PlanResponse": {
            "type": "object",
            "properties": {
                "itinerary": {"$ref": "#/definitions/types.Itinerary"},
                "success": {"type": "boolean"}
            }
        },
        "types.PlanRequest": {
            "type": "object",
            "required": ["query"],
            "properties": {
                "city": {"type": "string"},
                "date": {"type": "string", "example": "2025-06-14"},
                "query": {"type": "string"},
                "start_time": {"type": "string", "example": "09:00"},
                "trip_duration_hours": {"type": "integer"}
            }
        },
        "types.Itinerary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "query": {"type": "string"},
                "date": {"type": "string"},
                "city": {"type": "string"},
                "timezone": {"type": "string"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/types.ItineraryEntry"}},
                "total_travel_time_minutes": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "types.ItineraryEntry": {
            "type": "object",
            "properties": {
                "position": {"type": "integer"},
                "activity": {"type": "string"},
                "category": {"type": "string"},
                "venue": {"type": "object"},
                "scheduled_time": {"type": "string"},
                "display_time": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "travel_time_to_next_minutes": {"type": "integer"},
                "is_fixed": {"type": "boolean"},
                "substitution": {"type": "object"},
                "caveats": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.CitySummary": {
            "type": "object",
            "properties": {
                "slug": {"type": "string"},
                "name": {"type": "string"},
                "country": {"type": "string"},
                "timezone": {"type": "string"},
                "areas": {"type": "array", "items": {"type": "string"}}
            }
        },
        "city.ResolvedLocation": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "coordinates": {"type": "object"},
                "precision": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Day Planner API",
	Description:      "Turns a free-text request into a timed, venue-backed itinerary for one day in a supported city.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
