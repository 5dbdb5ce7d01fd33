package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleAuthenticate handles the authenticate_zoho tool. It drives the full
// credential lifecycle: a stored valid token is used as-is, otherwise a
// refresh is attempted, and as a last resort the browser consent flow runs.
// The resulting token is verified with a CurrentUser lookup.
func (s *Server) handleAuthenticate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.creds.ValidAccessToken(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Authentication failed: %v", err)), nil
	}

	users, err := s.crm.Users(ctx, "CurrentUser")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Token verification failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"message": "Successfully authenticated with Zoho CRM",
	}
	if len(users) > 0 {
		response["user"] = map[string]interface{}{
			"name":    users[0].FullName,
			"email":   users[0].Email,
			"role":    users[0].Role.Name,
			"profile": users[0].Profile.Name,
		}
	}
	return jsonResult(response)
}

// handleRevokeAuthentication handles the revoke_authentication tool.
func (s *Server) handleRevokeAuthentication(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.creds.Revoke(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to revoke authentication: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"message": "Authentication revoked successfully",
	})
}
