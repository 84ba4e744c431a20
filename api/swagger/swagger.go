package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Quarantine Remediation API",
        "description": "Validation and remediation layer over the loan data-quality quarantine",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Quarantine", "description": "Quarantined record review, validation and merge"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Warehouse unreachable"}
                }
            }
        },
        "/api/quarantine/records": {
            "get": {
                "tags": ["Quarantine"],
                "summary": "List quarantined records with page-scoped violation statistics",
                "parameters": [
                    {"name": "violation_type", "in": "query", "type": "string", "enum": ["PAYMENT_DATE", "BALANCE", "COST_CENTER"]},
                    {"name": "limit", "in": "query", "type": "integer", "minimum": 1, "maximum": 2000},
                    {"name": "offset", "in": "query", "type": "integer", "minimum": 0}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/QuarantineResponse"}},
                    "400": {"description": "Invalid query parameter", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/quarantine/records/export": {
            "get": {
                "tags": ["Quarantine"],
                "summary": "Export a page of quarantined records as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "violation_type", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/quarantine/violation-counts": {
            "get": {
                "tags": ["Quarantine"],
                "summary": "Violation counts across the whole quarantine table",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ViolationCountsResponse"}}
                }
            }
        },
        "/api/quarantine/violation-types": {
            "get": {
                "tags": ["Quarantine"],
                "summary": "Violation-type catalogue",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/quarantine/validate": {
            "post": {
                "tags": ["Quarantine"],
                "summary": "Validate record updates against the pipeline constraints",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/QuarantineRecordUpdate"}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/ValidationResult"}}},
                    "400": {"description": "Empty or oversized batch", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/quarantine/validate-batch": {
            "post": {
                "tags": ["Quarantine"],
                "summary": "Validate a batch with summary statistics",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BatchValidationResult"}},
                    "400": {"description": "Empty or oversized batch", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/quarantine/merge": {
            "post": {
                "tags": ["Quarantine"],
                "summary": "Merge validated records into the clean table",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MergeResult"}},
                    "400": {"description": "Empty or oversized batch", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/quarantine/merge-async": {
            "post": {
                "tags": ["Quarantine"],
                "summary": "Merge records in the background",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Accepted", "schema": {"$ref": "#/definitions/AsyncMergeResponse"}},
                    "400": {"description": "Empty batch", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/quarantine/health": {
            "get": {
                "tags": ["Quarantine"],
                "summary": "Quarantine API health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "QuarantineRecordUpdate": {
            "type": "object",
            "properties": {
                "composite_key": {"type": "string", "example": "1001_2024-12-15_pending"},
                "next_payment_date": {"type": "string", "example": "2024-06-15"},
                "balance": {"type": "integer"},
                "arrears_balance": {"type": "integer"},
                "cost_center_code": {"type": "string"}
            },
            "required": ["composite_key"]
        },
        "BatchUpdateRequest": {
            "type": "object",
            "properties": {
                "updates": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/QuarantineRecordUpdate"}
                },
                "user_email": {"type": "string"}
            },
            "required": ["updates"]
        },
        "ValidationResult": {
            "type": "object",
            "properties": {
                "composite_key": {"type": "string"},
                "is_valid": {"type": "boolean"},
                "violations": {"type": "array", "items": {"type": "string"}},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "BatchValidationResult": {
            "type": "object",
            "properties": {
                "total_records": {"type": "integer"},
                "valid_records": {"type": "integer"},
                "invalid_records": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/ValidationResult"}}
            }
        },
        "MergeResult": {
            "type": "object",
            "properties": {
                "total_records": {"type": "integer"},
                "merged_records": {"type": "integer"},
                "failed_records": {"type": "integer"},
                "pipeline_triggered": {"type": "boolean"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "AsyncMergeResponse": {
            "type": "object",
            "properties": {
                "task_id": {"type": "string"},
                "status": {"type": "string", "example": "processing"},
                "message": {"type": "string"}
            }
        },
        "QuarantineResponse": {
            "type": "object",
            "properties": {
                "records": {"type": "array", "items": {"type": "object"}},
                "total_count": {"type": "integer"},
                "filtered_count": {"type": "integer"},
                "violation_type_counts": {
                    "type": "object",
                    "additionalProperties": {"type": "integer"}
                }
            }
        },
        "ViolationCountsResponse": {
            "type": "object",
            "properties": {
                "violation_counts": {
                    "type": "object",
                    "additionalProperties": {"type": "integer"}
                }
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
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"}
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
