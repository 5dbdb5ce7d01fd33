// Package mcpserver exposes Zoho CRM operations as MCP tools over stdio.
//
// The server bridges AI assistants and the CRM REST API: each tool handler
// resolves credentials through the OAuth supervisor, performs the CRM call,
// and returns a JSON document the assistant can consume directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"zohocrm/internal/zoho/crm"
)

// CredentialManager is the slice of the OAuth supervisor the server needs
// for the authentication tools.
type CredentialManager interface {
	ValidAccessToken(ctx context.Context) (string, error)
	Revoke(ctx context.Context) error
}

// Server exposes CRM operations as MCP tools using stdio transport.
type Server struct {
	crm       *crm.Client
	creds     CredentialManager
	mcpServer *server.MCPServer
}

// Config configures the MCP server.
type Config struct {
	// Name is the server name advertised to MCP clients.
	Name string

	// Version is the server version advertised to MCP clients.
	Version string

	// CRM performs the API calls behind the tools.
	CRM *crm.Client

	// Credentials drives the authentication tools.
	Credentials CredentialManager
}

// NewServer creates an MCP server with the full CRM tool registry.
func NewServer(cfg Config) *Server {
	mcpServer := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		crm:       cfg.CRM,
		creds:     cfg.Credentials,
		mcpServer: mcpServer,
	}
	s.registerTools()
	return s
}

// Start serves MCP over stdio. It blocks until the client closes the
// connection or the process is terminated.
func (s *Server) Start(ctx context.Context) error {
	return server.ServeStdio(s.mcpServer)
}

// registerTools registers all CRM tools
func (s *Server) registerTools() {
	// Authentication
	s.mcpServer.AddTool(mcp.NewTool("authenticate_zoho",
		mcp.WithDescription("Authenticate with Zoho CRM. Opens a browser window for OAuth consent if no valid token is stored."),
	), s.handleAuthenticate)

	s.mcpServer.AddTool(mcp.NewTool("revoke_authentication",
		mcp.WithDescription("Revoke Zoho CRM authentication and clear stored tokens"),
	), s.handleRevokeAuthentication)

	// Metadata
	s.mcpServer.AddTool(mcp.NewTool("get_modules",
		mcp.WithDescription("Get all available modules in Zoho CRM"),
	), s.handleGetModules)

	s.mcpServer.AddTool(mcp.NewTool("get_module_fields",
		mcp.WithDescription("Get field information for a specific module"),
		mcp.WithString("module_name",
			mcp.Required(),
			mcp.Description("Name of the module (e.g., 'Leads', 'Contacts', 'Deals')"),
		),
	), s.handleGetModuleFields)

	// Records
	s.mcpServer.AddTool(mcp.NewTool("get_records",
		mcp.WithDescription("Get records from a specific module"),
		mcp.WithString("module_name",
			mcp.Required(),
			mcp.Description("Name of the module (e.g., 'Leads', 'Contacts', 'Deals')"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number (default: 1)"),
		),
		mcp.WithNumber("per_page",
			mcp.Description("Records per page (default: 200, max: 200)"),
		),
		mcp.WithString("sort_order",
			mcp.Description("Sort order 'asc' or 'desc' (default: 'desc')"),
		),
		mcp.WithString("sort_by",
			mcp.Description("Field to sort by (default: 'Modified_Time')"),
		),
	), s.handleGetRecords)

	s.mcpServer.AddTool(mcp.NewTool("get_record_by_id",
		mcp.WithDescription("Get a specific record by its ID"),
		mcp.WithString("module_name",
			mcp.Required(),
			mcp.Description("Name of the module"),
		),
		mcp.WithString("record_id",
			mcp.Required(),
			mcp.Description("ID of the record to retrieve"),
		),
	), s.handleGetRecordByID)

	s.mcpServer.AddTool(mcp.NewTool("search_records",
		mcp.WithDescription("Search for records in a module using criteria like (Email:equals:john@example.com)"),
		mcp.WithString("module_name",
			mcp.Required(),
			mcp.Description("Name of the module"),
		),
		mcp.WithString("criteria",
			mcp.Required(),
			mcp.Description("Search criteria expression"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number (default: 1)"),
		),
		mcp.WithNumber("per_page",
			mcp.Description("Records per page (default: 200, max: 200)"),
		),
	), s.handleSearchRecords)

	s.mcpServer.AddTool(mcp.NewTool("create_record",
		mcp.WithDescription("Create a new record in a module"),
		mcp.WithString("module_name",
			mcp.Required(),
			mcp.Description("Name of the module"),
		),
		mcp.WithObject("record_data",
			mcp.Required(),
			mcp.Description("Record fields keyed by API field name"),
		),
		mcp.WithBoolean("trigger_workflow",
			mcp.Description("Whether to trigger workflows (default: true)"),
		),
	), s.handleCreateRecord)

	s.mcpServer.AddTool(mcp.NewTool("update_record",
		mcp.WithDescription("Update an existing record"),
		mcp.WithString("module_name",
			mcp.Required(),
			mcp.Description("Name of the module"),
		),
		mcp.WithString("record_id",
			mcp.Required(),
			mcp.Description("ID of the record to update"),
		),
		mcp.WithObject("record_data",
			mcp.Required(),
			mcp.Description("Record fields to update, keyed by API field name"),
		),
		mcp.WithBoolean("trigger_workflow",
			mcp.Description("Whether to trigger workflows (default: true)"),
		),
	), s.handleUpdateRecord)

	s.mcpServer.AddTool(mcp.NewTool("delete_record",
		mcp.WithDescription("Delete a record from a module"),
		mcp.WithString("module_name",
			mcp.Required(),
			mcp.Description("Name of the module"),
		),
		mcp.WithString("record_id",
			mcp.Required(),
			mcp.Description("ID of the record to delete"),
		),
	), s.handleDeleteRecord)

	s.mcpServer.AddTool(mcp.NewTool("bulk_create_records",
		mcp.WithDescription("Create multiple records in a single call (maximum 100)"),
		mcp.WithString("module_name",
			mcp.Required(),
			mcp.Description("Name of the module"),
		),
		mcp.WithArray("records_data",
			mcp.Required(),
			mcp.Description("List of record objects, each keyed by API field name"),
		),
		mcp.WithBoolean("trigger_workflow",
			mcp.Description("Whether to trigger workflows (default: true)"),
		),
	), s.handleBulkCreateRecords)

	s.mcpServer.AddTool(mcp.NewTool("get_related_records",
		mcp.WithDescription("Get related records for a specific record"),
		mcp.WithString("module_name",
			mcp.Required(),
			mcp.Description("Name of the parent module (e.g., 'Accounts')"),
		),
		mcp.WithString("record_id",
			mcp.Required(),
			mcp.Description("ID of the parent record"),
		),
		mcp.WithString("related_module",
			mcp.Required(),
			mcp.Description("Name of the related module (e.g., 'Contacts', 'Deals')"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number (default: 1)"),
		),
		mcp.WithNumber("per_page",
			mcp.Description("Records per page (default: 200, max: 200)"),
		),
	), s.handleGetRelatedRecords)

	s.mcpServer.AddTool(mcp.NewTool("convert_lead",
		mcp.WithDescription("Convert a lead to Account, Contact, and optionally Deal"),
		mcp.WithString("lead_id",
			mcp.Required(),
			mcp.Description("ID of the lead to convert"),
		),
		mcp.WithObject("convert_data",
			mcp.Description("Conversion options and target entity data (overwrite, notify_lead_owner, Accounts, Contacts, Deals)"),
		),
	), s.handleConvertLead)

	s.mcpServer.AddTool(mcp.NewTool("get_record_count",
		mcp.WithDescription("Get the count of records in a module, optionally filtered by criteria"),
		mcp.WithString("module_name",
			mcp.Required(),
			mcp.Description("Name of the module"),
		),
		mcp.WithString("criteria",
			mcp.Description("Optional search criteria to filter records"),
		),
	), s.handleGetRecordCount)

	// Organization
	s.mcpServer.AddTool(mcp.NewTool("get_organization_info",
		mcp.WithDescription("Get information about the Zoho CRM organization"),
	), s.handleGetOrganizationInfo)

	s.mcpServer.AddTool(mcp.NewTool("get_users",
		mcp.WithDescription("Get information about CRM users"),
		mcp.WithString("type_filter",
			mcp.Description("Type of users to retrieve ('AllUsers', 'ActiveUsers', 'DeactiveUsers', 'ConfirmedUsers', 'AdminUsers', ...)"),
		),
	), s.handleGetUsers)
}

// jsonResult marshals v as an indented JSON tool result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// intArg reads a numeric argument, falling back to def when absent.
// JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

// stringArg reads a string argument, falling back to def when absent or empty.
func stringArg(args map[string]interface{}, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

// boolArg reads a boolean argument, falling back to def when absent.
func boolArg(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// recordArg reads an object argument as a CRM record.
func recordArg(args map[string]interface{}, key string) (crm.Record, bool) {
	v, ok := args[key].(map[string]interface{})
	if !ok {
		return nil, false
	}
	return crm.Record(v), true
}
