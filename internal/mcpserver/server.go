package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all Localspot tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("localspot", "1.0.0")
	client := NewLocalspotClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolSearchBusinesses, h.HandleSearchBusinesses)
	s.AddTool(ToolGetBusiness, h.HandleGetBusiness)
	s.AddTool(ToolListReviews, h.HandleListReviews)
	s.AddTool(ToolActiveDeals, h.HandleActiveDeals)
	s.AddTool(ToolTopRated, h.HandleTopRated)
	s.AddTool(ToolFindSpots, h.HandleFindSpots)

	return s
}
