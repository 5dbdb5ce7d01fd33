package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"zohocrm/internal/zoho/crm"
)

// handleGetRecords handles the get_records tool.
func (s *Server) handleGetRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module_name")
	if err != nil {
		return mcp.NewToolResultError("module_name argument is required"), nil
	}

	args := request.GetArguments()
	opts := crm.ListOptions{
		Page:      intArg(args, "page", 1),
		PerPage:   intArg(args, "per_page", crm.MaxPerPage),
		SortOrder: stringArg(args, "sort_order", "desc"),
		SortBy:    stringArg(args, "sort_by", "Modified_Time"),
	}

	page, err := s.crm.Records(ctx, module, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get records: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"module":    module,
		"count":     len(page.Records),
		"page_info": page.Info,
		"records":   page.Records,
	})
}

// handleGetRecordByID handles the get_record_by_id tool.
func (s *Server) handleGetRecordByID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module_name")
	if err != nil {
		return mcp.NewToolResultError("module_name argument is required"), nil
	}
	recordID, err := request.RequireString("record_id")
	if err != nil {
		return mcp.NewToolResultError("record_id argument is required"), nil
	}

	record, err := s.crm.RecordByID(ctx, module, recordID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get record: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"module":    module,
		"record_id": recordID,
		"record":    record,
	})
}

// handleSearchRecords handles the search_records tool.
func (s *Server) handleSearchRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module_name")
	if err != nil {
		return mcp.NewToolResultError("module_name argument is required"), nil
	}
	criteria, err := request.RequireString("criteria")
	if err != nil {
		return mcp.NewToolResultError("criteria argument is required"), nil
	}

	args := request.GetArguments()
	opts := crm.ListOptions{
		Page:    intArg(args, "page", 1),
		PerPage: intArg(args, "per_page", crm.MaxPerPage),
	}

	page, err := s.crm.SearchRecords(ctx, module, criteria, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search records: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"module":    module,
		"criteria":  criteria,
		"count":     len(page.Records),
		"page_info": page.Info,
		"records":   page.Records,
	})
}

// handleCreateRecord handles the create_record tool.
func (s *Server) handleCreateRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module_name")
	if err != nil {
		return mcp.NewToolResultError("module_name argument is required"), nil
	}

	args := request.GetArguments()
	record, ok := recordArg(args, "record_data")
	if !ok {
		return mcp.NewToolResultError("record_data argument is required and must be an object"), nil
	}
	triggerWorkflow := boolArg(args, "trigger_workflow", true)

	result, err := s.crm.CreateRecord(ctx, module, record, triggerWorkflow)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create record: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"module":  module,
		"message": "Record created successfully",
		"result":  result,
	})
}

// handleUpdateRecord handles the update_record tool.
func (s *Server) handleUpdateRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module_name")
	if err != nil {
		return mcp.NewToolResultError("module_name argument is required"), nil
	}
	recordID, err := request.RequireString("record_id")
	if err != nil {
		return mcp.NewToolResultError("record_id argument is required"), nil
	}

	args := request.GetArguments()
	record, ok := recordArg(args, "record_data")
	if !ok {
		return mcp.NewToolResultError("record_data argument is required and must be an object"), nil
	}
	triggerWorkflow := boolArg(args, "trigger_workflow", true)

	result, err := s.crm.UpdateRecord(ctx, module, recordID, record, triggerWorkflow)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update record: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"module":    module,
		"record_id": recordID,
		"message":   "Record updated successfully",
		"result":    result,
	})
}

// handleDeleteRecord handles the delete_record tool.
func (s *Server) handleDeleteRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module_name")
	if err != nil {
		return mcp.NewToolResultError("module_name argument is required"), nil
	}
	recordID, err := request.RequireString("record_id")
	if err != nil {
		return mcp.NewToolResultError("record_id argument is required"), nil
	}

	result, err := s.crm.DeleteRecord(ctx, module, recordID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete record: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"module":    module,
		"record_id": recordID,
		"message":   "Record deleted successfully",
		"result":    result,
	})
}

// handleBulkCreateRecords handles the bulk_create_records tool.
func (s *Server) handleBulkCreateRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module_name")
	if err != nil {
		return mcp.NewToolResultError("module_name argument is required"), nil
	}

	args := request.GetArguments()
	rawRecords, ok := args["records_data"].([]interface{})
	if !ok {
		return mcp.NewToolResultError("records_data argument is required and must be an array of objects"), nil
	}

	records := make([]crm.Record, 0, len(rawRecords))
	for i, raw := range rawRecords {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("records_data[%d] must be an object", i)), nil
		}
		records = append(records, crm.Record(obj))
	}
	triggerWorkflow := boolArg(args, "trigger_workflow", true)

	results, err := s.crm.BulkCreateRecords(ctx, module, records, triggerWorkflow)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create records: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"module":          module,
		"message":         fmt.Sprintf("%d records created successfully", len(results)),
		"created_records": results,
	})
}

// handleGetRelatedRecords handles the get_related_records tool.
func (s *Server) handleGetRelatedRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module_name")
	if err != nil {
		return mcp.NewToolResultError("module_name argument is required"), nil
	}
	recordID, err := request.RequireString("record_id")
	if err != nil {
		return mcp.NewToolResultError("record_id argument is required"), nil
	}
	relatedModule, err := request.RequireString("related_module")
	if err != nil {
		return mcp.NewToolResultError("related_module argument is required"), nil
	}

	args := request.GetArguments()
	opts := crm.ListOptions{
		Page:    intArg(args, "page", 1),
		PerPage: intArg(args, "per_page", crm.MaxPerPage),
	}

	page, err := s.crm.RelatedRecords(ctx, module, recordID, relatedModule, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get related records: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"module":          module,
		"record_id":       recordID,
		"related_module":  relatedModule,
		"count":           len(page.Records),
		"page_info":       page.Info,
		"related_records": page.Records,
	})
}

// handleConvertLead handles the convert_lead tool.
func (s *Server) handleConvertLead(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	leadID, err := request.RequireString("lead_id")
	if err != nil {
		return mcp.NewToolResultError("lead_id argument is required"), nil
	}

	convertData, ok := recordArg(request.GetArguments(), "convert_data")
	if !ok {
		convertData = crm.Record{}
	}

	result, err := s.crm.ConvertLead(ctx, leadID, convertData)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to convert lead: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"lead_id":           leadID,
		"message":           "Lead converted successfully",
		"conversion_result": result,
	})
}

// handleGetRecordCount handles the get_record_count tool.
func (s *Server) handleGetRecordCount(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module_name")
	if err != nil {
		return mcp.NewToolResultError("module_name argument is required"), nil
	}
	criteria := stringArg(request.GetArguments(), "criteria", "")

	count, err := s.crm.RecordCount(ctx, module, criteria)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to count records: %v", err)), nil
	}

	response := map[string]interface{}{
		"module": module,
		"count":  count,
	}
	if criteria != "" {
		response["criteria"] = criteria
	}
	return jsonResult(response)
}
