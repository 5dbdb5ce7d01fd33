package crm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// MaxPerPage is the largest page size the CRM API accepts.
const MaxPerPage = 200

// MaxBulkRecords is the largest batch the bulk create endpoint accepts.
const MaxBulkRecords = 100

// ErrBulkLimit is returned when a bulk operation exceeds MaxBulkRecords.
var ErrBulkLimit = errors.New("maximum 100 records allowed per bulk operation")

// ListOptions controls pagination and ordering of record listings.
// Zero values fall back to page 1, 200 per page, newest first.
type ListOptions struct {
	Page      int
	PerPage   int
	SortOrder string
	SortBy    string
}

// query renders the options as request parameters.
func (o ListOptions) query(withSort bool) url.Values {
	page := o.Page
	if page <= 0 {
		page = 1
	}
	perPage := o.PerPage
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	q := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}

	if withSort {
		sortOrder := o.SortOrder
		if sortOrder == "" {
			sortOrder = "desc"
		}
		sortBy := o.SortBy
		if sortBy == "" {
			sortBy = "Modified_Time"
		}
		q.Set("sort_order", sortOrder)
		q.Set("sort_by", sortBy)
	}

	return q
}

// recordEnvelope wraps record payloads the way the CRM API expects them.
type recordEnvelope struct {
	Data []Record `json:"data"`
}

// Records lists records from a module.
func (c *Client) Records(ctx context.Context, module string, opts ListOptions) (*RecordPage, error) {
	var page RecordPage
	if err := c.do(ctx, http.MethodGet, module, opts.query(true), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RecordByID fetches a single record. Returns nil when the record does not
// exist but the request itself succeeded.
func (c *Client) RecordByID(ctx context.Context, module, id string) (Record, error) {
	var page RecordPage
	if err := c.do(ctx, http.MethodGet, module+"/"+id, nil, nil, &page); err != nil {
		return nil, err
	}
	if len(page.Records) == 0 {
		return nil, nil
	}
	return page.Records[0], nil
}

// SearchRecords finds records matching a criteria expression such as
// (Email:equals:john@example.com).
func (c *Client) SearchRecords(ctx context.Context, module, criteria string, opts ListOptions) (*RecordPage, error) {
	q := opts.query(false)
	q.Set("criteria", criteria)

	var page RecordPage
	if err := c.do(ctx, http.MethodGet, module+"/search", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateRecord creates one record and returns the API's result entry for it.
func (c *Client) CreateRecord(ctx context.Context, module string, record Record, triggerWorkflow bool) (Record, error) {
	results, err := c.BulkCreateRecords(ctx, module, []Record{record}, triggerWorkflow)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// BulkCreateRecords creates up to MaxBulkRecords records in one call.
func (c *Client) BulkCreateRecords(ctx context.Context, module string, records []Record, triggerWorkflow bool) ([]Record, error) {
	if len(records) > MaxBulkRecords {
		return nil, ErrBulkLimit
	}

	var out recordEnvelope
	err := c.do(ctx, http.MethodPost, module, workflowQuery(triggerWorkflow), recordEnvelope{Data: records}, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// UpdateRecord updates an existing record. The record id travels in the URL
// only; the body carries just the fields to change.
func (c *Client) UpdateRecord(ctx context.Context, module, id string, record Record, triggerWorkflow bool) (Record, error) {
	var out recordEnvelope
	err := c.do(ctx, http.MethodPut, module+"/"+id, workflowQuery(triggerWorkflow), recordEnvelope{Data: []Record{record}}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return out.Data[0], nil
}

// DeleteRecord deletes a record.
func (c *Client) DeleteRecord(ctx context.Context, module, id string) (Record, error) {
	var out recordEnvelope
	if err := c.do(ctx, http.MethodDelete, module+"/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return out.Data[0], nil
}

// RelatedRecords lists records of relatedModule attached to a parent record.
func (c *Client) RelatedRecords(ctx context.Context, module, id, relatedModule string, opts ListOptions) (*RecordPage, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", module, id, relatedModule)

	var page RecordPage
	if err := c.do(ctx, http.MethodGet, endpoint, opts.query(false), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ConvertLead converts a lead into Account, Contact, and optionally Deal.
// convertData carries the conversion options and target entity data.
func (c *Client) ConvertLead(ctx context.Context, leadID string, convertData Record) (Record, error) {
	endpoint := fmt.Sprintf("Leads/%s/actions/convert", leadID)

	var out recordEnvelope
	err := c.do(ctx, http.MethodPost, endpoint, nil, recordEnvelope{Data: []Record{convertData}}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return out.Data[0], nil
}

// RecordCount returns the number of records in a module, optionally filtered
// by a criteria expression.
func (c *Client) RecordCount(ctx context.Context, module, criteria string) (int, error) {
	var q url.Values
	if criteria != "" {
		q = url.Values{"criteria": {criteria}}
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, module+"/actions/count", q, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// workflowQuery suppresses workflow execution when triggerWorkflow is false.
func workflowQuery(triggerWorkflow bool) url.Values {
	if triggerWorkflow {
		return nil
	}
	return url.Values{"trigger": {"workflow"}}
}
