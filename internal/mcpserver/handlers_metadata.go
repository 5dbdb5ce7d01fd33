package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"zohocrm/internal/zoho/crm"
)

// handleGetModules handles the get_modules tool.
func (s *Server) handleGetModules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modules, err := s.crm.Modules(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get modules: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"count":   len(modules),
		"modules": modules,
	})
}

// handleGetModuleFields handles the get_module_fields tool.
func (s *Server) handleGetModuleFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module_name")
	if err != nil {
		return mcp.NewToolResultError("module_name argument is required"), nil
	}

	fields, err := s.crm.Fields(ctx, module)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get fields: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"module": module,
		"count":  len(fields),
		"fields": fields,
	})
}

// handleGetOrganizationInfo handles the get_organization_info tool.
func (s *Server) handleGetOrganizationInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	org, err := s.crm.Organization(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get organization info: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"organization": org,
	})
}

// handleGetUsers handles the get_users tool.
func (s *Server) handleGetUsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeFilter := stringArg(request.GetArguments(), "type_filter", crm.DefaultUserType)

	users, err := s.crm.Users(ctx, typeFilter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get users: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"type_filter": typeFilter,
		"count":       len(users),
		"users":       users,
	})
}
