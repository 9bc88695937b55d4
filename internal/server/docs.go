package server

// @title stackmon API
// @version 1.0
// @description Supervises the local service stack: startup, shutdown, health and API keys

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8090
// @BasePath /
// @schemes http
