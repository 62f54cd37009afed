package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Study Sprint API",
        "description": "Schedules curriculum videos into multi-week study sprints.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Sprints", "description": "Sprint generation, preview and lifecycle"},
        {"name": "StudyPlans", "description": "Week plans and downloads"},
        {"name": "Curricula", "description": "Curriculum metadata"}
    ],
    "paths": {
        "/sprints": {
            "get": {
                "tags": ["Sprints"],
                "summary": "List the caller's sprints",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sprints"],
                "summary": "Generate a study sprint",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/GenerateSprintRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "NO_CURRICULUM, LESSON_CAP_ZERO, BAD_DATE or validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "NO_TOPICS, NO_VIDEOS, NO_VIDEOS_TEACHER, TEACHER_PLAYLIST_MISSING or TEACHER_VIDEO_MISSING", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "TIMEOUT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sprints/estimate": {
            "post": {
                "tags": ["Sprints"],
                "summary": "Estimate a selection",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SprintSelection"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sprints/videos": {
            "post": {
                "tags": ["Sprints"],
                "summary": "Ordered videos of a selection",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SprintSelection"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sprints/{id}": {
            "delete": {
                "tags": ["Sprints"],
                "summary": "Delete a sprint with its week plans",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/study-plans/{weekStart}": {
            "get": {
                "tags": ["StudyPlans"],
                "summary": "Week plan of the caller",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "weekStart", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/study-plans/{weekStart}/export": {
            "get": {
                "tags": ["StudyPlans"],
                "summary": "Download a week plan",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "weekStart", "required": true, "type": "string", "format": "date"},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "403": {"description": "Exports disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/curricula/{id}/teachers": {
            "get": {
                "tags": ["Curricula"],
                "summary": "Teachers available for lessons",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "query", "name": "lessonIds", "type": "string", "description": "Comma separated lesson ids"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SprintSelection": {
            "type": "object",
            "properties": {
                "curriculumId": {"type": "string"},
                "sectionIds": {"type": "array", "items": {"type": "integer"}},
                "lessonIds": {"type": "array", "items": {"type": "integer"}},
                "topicIds": {"type": "array", "items": {"type": "string"}},
                "lessonTeachers": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "GenerateSprintRequest": {
            "allOf": [
                {"$ref": "#/definitions/SprintSelection"},
                {
                    "type": "object",
                    "properties": {
                        "startDate": {"type": "string", "format": "date"},
                        "dailyMinutes": {"type": "number"},
                        "lessonDailyMinutes": {"type": "object", "additionalProperties": {"type": "number"}}
                    }
                }
            ]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
