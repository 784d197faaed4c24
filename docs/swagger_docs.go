// Package docs holds the general API annotations for the scanviz OpenAPI
// document. Operation annotations live on the handlers in
// internal/api/handlers; run `go generate ./docs` to rebuild ./swagger.
//
//go:generate swag init -g swagger_docs.go -d ./,../internal/api/handlers -o ./swagger --parseDependency --parseInternal
package docs

// @title Scanviz API
// @version 0.1.0
// @description Animated, educational visualizer of port-scanning techniques.
// @description
// @description ## Features
// @description - **Scan catalog**: TCP connect, SYN, FIN, NULL, Xmas and UDP probes with open and closed scenarios
// @description - **Playback**: one session at a time, with speed control and a live event stream over WebSocket
// @description - **History**: completed and stopped sessions recorded to the database when enabled
// @description
// @description ## Authentication
// @description When authentication is enabled, mutating endpoints require an API key in the `X-API-Key` header.
// @description Reads and the health endpoints stay public.
//
// @contact.name Scanviz
// @contact.url https://github.com/anstrom/scanviz
//
// @license.name MIT
// @license.url https://github.com/anstrom/scanviz/blob/main/LICENSE
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for mutating endpoints
