// Package docs holds the swagger document served at /swagger/doc.json.
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
        "/health": {
            "get": {
                "tags": ["system"],
                "summary": "Liveness, including the store",
                "responses": {
                    "200": {"description": "ok", "schema": {"type": "string"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/instantiate": {
            "post": {
                "description": "Sets the job counter to zero. Fails with 409 once the ledger exists.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Initialize the ledger",
                "parameters": [
                    {"type": "string", "description": "caller identity", "name": "X-Sender", "in": "header", "required": true},
                    {"description": "instantiate message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ledger.InstantiateMsg"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.attributesResp"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/execute": {
            "post": {
                "description": "Body is externally tagged, e.g. {\"PostJob\":{\"title\":\"...\",\"description\":\"...\",\"budget\":\"100\"}}.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Apply an execute message",
                "parameters": [
                    {"type": "string", "description": "caller identity", "name": "X-Sender", "in": "header", "required": true},
                    {"description": "exactly one variant", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ledger.ExecuteMsg"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.attributesResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/query": {
            "post": {
                "description": "Body is externally tagged: {\"GetJobDetails\":{\"job_id\":0}} or {\"GetJobProposals\":{\"job_id\":0}}.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Answer a query message",
                "parameters": [
                    {"description": "exactly one variant", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ledger.QueryMsg"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List all jobs in id order",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/httptransport.jobListEntry"}}}
                }
            },
            "post": {
                "description": "Creates an Open job owned by the sender.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Post a job",
                "parameters": [
                    {"type": "string", "description": "caller identity", "name": "X-Sender", "in": "header", "required": true},
                    {"description": "job payload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.createJobDTO"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httptransport.createJobResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/jobs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get job by id",
                "parameters": [
                    {"type": "integer", "description": "job id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.Job"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/jobs/{id}/proposals": {
            "get": {
                "description": "An unknown job yields an empty list.",
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List a job's proposals in submission order",
                "parameters": [
                    {"type": "integer", "description": "job id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.Proposal"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Bid on an Open job",
                "parameters": [
                    {"type": "string", "description": "caller identity", "name": "X-Sender", "in": "header", "required": true},
                    {"type": "integer", "description": "job id", "name": "id", "in": "path", "required": true},
                    {"description": "proposal", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.submitProposalDTO"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.attributesResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/jobs/{id}/accept": {
            "post": {
                "description": "Poster only. The freelancer does not have to have bid.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Assign a freelancer to an Open job",
                "parameters": [
                    {"type": "string", "description": "caller identity", "name": "X-Sender", "in": "header", "required": true},
                    {"type": "integer", "description": "job id", "name": "id", "in": "path", "required": true},
                    {"description": "freelancer to assign", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httptransport.acceptProposalDTO"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.attributesResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/jobs/{id}/complete": {
            "post": {
                "description": "Assigned freelancer only.",
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Mark an InProgress job Completed",
                "parameters": [
                    {"type": "string", "description": "caller identity", "name": "X-Sender", "in": "header", "required": true},
                    {"type": "integer", "description": "job id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.attributesResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/commands": {
            "post": {
                "description": "Stores the command (pending) and enqueues it for the worker.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "Queue an execute message",
                "parameters": [
                    {"type": "string", "description": "caller identity", "name": "X-Sender", "in": "header", "required": true},
                    {"description": "exactly one variant", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ledger.ExecuteMsg"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/httptransport.submitCommandResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/commands/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "Get a queued command and its outcome",
                "parameters": [
                    {"type": "string", "description": "command id (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.Command"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        }
    },
    "definitions": {
        "entity.Job": {
            "type": "object",
            "properties": {
                "poster": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "budget": {"type": "string", "example": "100"},
                "status": {"type": "string", "enum": ["Open", "InProgress", "Completed", "Cancelled"]},
                "assigned_freelancer": {"type": "string", "x-nullable": true},
                "created_at": {"type": "integer", "description": "unix seconds"}
            }
        },
        "entity.Attribute": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "entity.Command": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "sender": {"type": "string"},
                "kind": {"type": "string"},
                "msg": {"type": "object"},
                "status": {"type": "string", "enum": ["pending", "processing", "done", "error"]},
                "attributes": {"type": "array", "items": {"$ref": "#/definitions/entity.Attribute"}},
                "error": {"type": "string"},
                "error_kind": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "entity.Proposal": {
            "type": "object",
            "properties": {
                "freelancer": {"type": "string"},
                "bid_amount": {"type": "string", "example": "80"},
                "cover_letter": {"type": "string"}
            }
        },
        "httptransport.acceptProposalDTO": {
            "type": "object",
            "properties": {
                "freelancer": {"type": "string"}
            }
        },
        "httptransport.apiError": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "kind": {"type": "string", "enum": ["invalid_input", "unauthorized", "not_found", "already_instantiated", "internal"]}
            }
        },
        "httptransport.attributesResp": {
            "type": "object",
            "properties": {
                "attributes": {"type": "array", "items": {"$ref": "#/definitions/entity.Attribute"}}
            }
        },
        "httptransport.createJobDTO": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "budget": {"type": "string", "example": "100"}
            }
        },
        "httptransport.createJobResp": {
            "type": "object",
            "properties": {
                "job_id": {"type": "integer"},
                "attributes": {"type": "array", "items": {"$ref": "#/definitions/entity.Attribute"}}
            }
        },
        "httptransport.jobListEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "poster": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "budget": {"type": "string", "example": "100"},
                "status": {"type": "string", "enum": ["Open", "InProgress", "Completed", "Cancelled"]},
                "assigned_freelancer": {"type": "string", "x-nullable": true},
                "created_at": {"type": "integer", "description": "unix seconds"}
            }
        },
        "httptransport.submitCommandResp": {
            "type": "object",
            "properties": {
                "id": {"type": "string"}
            }
        },
        "httptransport.submitProposalDTO": {
            "type": "object",
            "properties": {
                "bid_amount": {"type": "string", "example": "80"},
                "cover_letter": {"type": "string"}
            }
        },
        "ledger.AcceptProposal": {
            "type": "object",
            "properties": {
                "job_id": {"type": "integer"},
                "freelancer": {"type": "string"}
            }
        },
        "ledger.CompleteJob": {
            "type": "object",
            "properties": {
                "job_id": {"type": "integer"}
            }
        },
        "ledger.ExecuteMsg": {
            "type": "object",
            "properties": {
                "PostJob": {"$ref": "#/definitions/ledger.PostJob"},
                "SubmitProposal": {"$ref": "#/definitions/ledger.SubmitProposal"},
                "AcceptProposal": {"$ref": "#/definitions/ledger.AcceptProposal"},
                "CompleteJob": {"$ref": "#/definitions/ledger.CompleteJob"}
            }
        },
        "ledger.InstantiateMsg": {
            "type": "object",
            "properties": {
                "admin": {"type": "string"}
            }
        },
        "ledger.JobIDQuery": {
            "type": "object",
            "properties": {
                "job_id": {"type": "integer"}
            }
        },
        "ledger.PostJob": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "budget": {"type": "string", "example": "100"}
            }
        },
        "ledger.QueryMsg": {
            "type": "object",
            "properties": {
                "GetJobDetails": {"$ref": "#/definitions/ledger.JobIDQuery"},
                "GetJobProposals": {"$ref": "#/definitions/ledger.JobIDQuery"}
            }
        },
        "ledger.SubmitProposal": {
            "type": "object",
            "properties": {
                "job_id": {"type": "integer"},
                "bid_amount": {"type": "string", "example": "80"},
                "cover_letter": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Job Ledger API",
	Description:      "Job marketplace ledger: jobs, proposals and their lifecycle.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
