package main

import (
	"os"

	_ "taskmanager/docs"
	"taskmanager/internal/cli"
)

// @title           Task Manager API
// @version         1.0
// @description     Work groups, projects and tasks with role-based access.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
