package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Mnemo Revision API",
        "description": "Revision scheduling and review lifecycle for the Mnemo knowledge base",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Plans", "description": "Revision plan management"},
        {"name": "Tasks", "description": "Task lifecycle and scheduling"},
        {"name": "History", "description": "Append-only review log"},
        {"name": "Settings", "description": "Reminder settings and summaries"}
    ],
    "paths": {
        "/revisions/plans": {
            "get": {
                "tags": ["Plans"],
                "summary": "List revision plans",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["active", "completed", "cancelled"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Plans"],
                "summary": "Create a plan and generate its tasks",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/revisions/plans/{planId}": {
            "get": {
                "tags": ["Plans"],
                "summary": "Get one plan",
                "parameters": [
                    {"name": "planId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/revisions/plans/{planId}/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List a plan's tasks",
                "parameters": [
                    {"name": "planId", "in": "path", "required": true, "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/revisions/tasks/{taskId}": {
            "patch": {
                "tags": ["Tasks"],
                "summary": "Update a single task",
                "parameters": [
                    {"name": "taskId", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/revisions/tasks/batch": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Batch update tasks",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchUpdateTasksRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/revisions/tasks/next": {
            "get": {
                "tags": ["Tasks"],
                "summary": "Next due pending task",
                "parameters": [
                    {"name": "planId", "in": "query", "type": "integer"},
                    {"name": "mode", "in": "query", "type": "string", "enum": ["normal", "intensive", "review", "adjustment"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "204": {"description": "No due task"}
                }
            }
        },
        "/revisions/tasks/{taskId}/adjust": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Reschedule a task",
                "parameters": [
                    {"name": "taskId", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdjustTaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/revisions/daily-tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "Tasks scheduled on a day",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/revisions/history": {
            "get": {
                "tags": ["History"],
                "summary": "List revision history",
                "parameters": [
                    {"name": "noteId", "in": "query", "type": "integer"},
                    {"name": "taskId", "in": "query", "type": "integer"},
                    {"name": "startDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "endDate", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["History"],
                "summary": "Record a review event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordRevisionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/revisions/history/export": {
            "get": {
                "tags": ["History"],
                "summary": "Export history as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "noteId", "in": "query", "type": "integer"},
                    {"name": "taskId", "in": "query", "type": "integer"},
                    {"name": "startDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "endDate", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/revisions/handbooks/{handbookId}/plans": {
            "get": {
                "tags": ["Plans"],
                "summary": "Active plans covering a handbook",
                "parameters": [
                    {"name": "handbookId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/revisions/notes/{noteId}/plans/{planId}": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Enroll a note into one plan",
                "parameters": [
                    {"name": "noteId", "in": "path", "required": true, "type": "integer"},
                    {"name": "planId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Note already in plan"}
                }
            }
        },
        "/revisions/notes/{noteId}/plans": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Enroll a note into several plans",
                "parameters": [
                    {"name": "noteId", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddNoteToPlansRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/revision-settings/notifications/summary": {
            "get": {
                "tags": ["Settings"],
                "summary": "Daily task summary",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/revision-settings/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get reminder settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Settings"],
                "summary": "Update reminder settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/revision-settings/statistics/note/{noteId}": {
            "get": {
                "tags": ["Settings"],
                "summary": "Review statistics for a note",
                "parameters": [
                    {"name": "noteId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/revision-settings/history/note/{noteId}": {
            "get": {
                "tags": ["Settings"],
                "summary": "Review history for a note",
                "parameters": [
                    {"name": "noteId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreatePlanRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "handbook_ids": {"type": "array", "items": {"type": "integer"}},
                "category_ids": {"type": "array", "items": {"type": "integer"}},
                "tag_ids": {"type": "array", "items": {"type": "integer"}},
                "note_statuses": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["name", "start_date", "end_date"]
        },
        "UpdateTaskRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "mastery_level": {"type": "string"},
                "completed_at": {"type": "string", "format": "date-time"}
            }
        },
        "BatchUpdateTasksRequest": {
            "type": "object",
            "properties": {
                "task_ids": {"type": "array", "items": {"type": "integer"}},
                "status": {"type": "string"},
                "mastery_level": {"type": "string"},
                "revision_mode": {"type": "string"},
                "time_spent": {"type": "integer"},
                "comments": {"type": "string"}
            },
            "required": ["task_ids", "status", "mastery_level", "revision_mode"]
        },
        "AdjustTaskRequest": {
            "type": "object",
            "properties": {
                "new_date": {"type": "string", "format": "date-time"},
                "priority": {"type": "integer"},
                "comments": {"type": "string"}
            },
            "required": ["new_date"]
        },
        "AddNoteToPlansRequest": {
            "type": "object",
            "properties": {
                "plan_ids": {"type": "array", "items": {"type": "integer"}},
                "start_date": {"type": "string", "format": "date-time"},
                "priority": {"type": "integer"}
            },
            "required": ["plan_ids"]
        },
        "RecordRevisionRequest": {
            "type": "object",
            "properties": {
                "task_id": {"type": "integer"},
                "mastery_level": {"type": "string"},
                "revision_mode": {"type": "string"},
                "time_spent": {"type": "integer"},
                "comments": {"type": "string"}
            },
            "required": ["task_id", "mastery_level"]
        },
        "UpdateSettingsRequest": {
            "type": "object",
            "properties": {
                "reminder_enabled": {"type": "boolean"},
                "reminder_time": {"type": "string", "example": "09:00"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
