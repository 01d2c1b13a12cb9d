// Package docs GeoClaim API.
//
// Спецификация OpenAPI для /swagger/*. Пересобирается командой
// swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Состояние сервиса",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/localities": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Localities"],
                "summary": "Список локаций",
                "parameters": [
                    {"type": "string", "name": "type", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "bbox", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/localities/nearby": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Localities"],
                "summary": "Локации в радиусе",
                "parameters": [
                    {"type": "number", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "name": "lng", "in": "query", "required": true},
                    {"type": "number", "name": "radius_km", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/localities/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Localities"],
                "summary": "Локация по ID",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/localities/{id}/research": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Localities"],
                "summary": "Исследование локации",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/localities/{id}/elevation": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Localities"],
                "summary": "Высота локации",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/localities/{id}/audit": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Localities"],
                "summary": "Проверка земельного статуса",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "name": "async", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "202": {"description": "Accepted"}, "404": {"description": "Not Found"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/minerals/lookup": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Research"],
                "summary": "Изображение минерала",
                "parameters": [{"type": "string", "name": "name", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/chat": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Research"],
                "summary": "Чат без сессии",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/research/structured": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Research"],
                "summary": "Структурированный запрос",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/speak": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["audio/wav"],
                "tags": ["Research"],
                "summary": "Синтез речи",
                "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}
            }
        },
        "/api/v1/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Глобальный поиск",
                "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/layers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Базовые слои и оверлеи",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/sessions": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Создать сессию",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Снимок сессии",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/sessions/{id}/select": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Выбрать локацию",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Закрыть панель деталей",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/sessions/{id}/chat": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Чат в сессии",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/sessions/{id}/search": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Поиск в сессии",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/sessions/{id}/layers": {
            "put": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Слои карты",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/sessions/{id}/audit": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Проверка земельного статуса выбранной локации",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "GeoClaim API",
	Description:      "Сервис исследования минеральных локаций США.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
