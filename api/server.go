package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/mindmesh-labs/mindmesh/api/handlers"
)

// StartServer initializes the REST API and blocks serving it.
func StartServer(port int, h *handlers.Handlers, feed *handlers.TurnFeed) error {
	r := gin.Default()
	SetupRoutes(r, h, feed)
	return r.Run(fmt.Sprintf(":%d", port))
}
