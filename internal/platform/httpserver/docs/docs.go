// Package docs registers the OpenAPI document served under /swagger/.
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
        "/api/v1/ranking/events": {
            "post": {
                "summary": "Apply a reviewed finding",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyEventRequest"}}],
                "responses": {
                    "200": {"description": "Replayed event"},
                    "201": {"description": "Points awarded"},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/v1/ranking/leaderboard": {
            "get": {
                "summary": "Composite score leaderboard",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "tier", "type": "string", "enum": ["E", "D", "C", "B", "A", "S"]},
                    {"in": "query", "name": "q", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"}
                ],
                "responses": {"200": {"description": "Leaderboard page"}}
            }
        },
        "/api/v1/ranking/tiers": {
            "get": {"summary": "Rank table", "produces": ["application/json"], "responses": {"200": {"description": "Tiers"}}}
        },
        "/api/v1/ranking/users/{user_id}": {
            "get": {
                "summary": "User ranking summary",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "user_id", "type": "string", "required": true}],
                "responses": {"200": {"description": "Ranking"}, "404": {"description": "Unknown user", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/api/v1/ranking/users/{user_id}/transactions": {
            "get": {
                "summary": "Points ledger, newest first",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "user_id", "type": "string", "required": true},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "Transactions"}}
            }
        },
        "/api/v1/ranking/users/{user_id}/achievements": {
            "get": {
                "summary": "Achievement catalog with unlock state",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "user_id", "type": "string", "required": true}],
                "responses": {"200": {"description": "Achievements"}}
            }
        },
        "/api/v1/ranking/users/{user_id}/rewards": {
            "get": {
                "summary": "Reward catalog with eligibility",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "user_id", "type": "string", "required": true}],
                "responses": {"200": {"description": "Rewards"}}
            }
        },
        "/api/v1/ranking/users/{user_id}/redemptions": {
            "post": {
                "summary": "Redeem a reward",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "user_id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RedeemRewardRequest"}}
                ],
                "responses": {
                    "200": {"description": "Redeemed", "schema": {"$ref": "#/definitions/RedeemRewardResponse"}},
                    "422": {"description": "Not eligible", "schema": {"$ref": "#/definitions/RedeemRewardResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "ApplyEventRequest": {
            "type": "object",
            "required": ["user_id", "severity"],
            "properties": {
                "user_id": {"type": "string"},
                "display_name": {"type": "string"},
                "severity": {"type": "string", "enum": ["critical", "high", "medium", "low"]},
                "reason": {"type": "string"},
                "source_ref": {"type": "string"},
                "earnings": {"type": "number"}
            }
        },
        "RedeemRewardRequest": {
            "type": "object",
            "required": ["reward_id"],
            "properties": {"reward_id": {"type": "string"}}
        },
        "RedeemRewardResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "message": {"type": "string"}}
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Bountyboard Ranking API",
	Description:      "Hunter scoring, tiers, achievements and rewards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
