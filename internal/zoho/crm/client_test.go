package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCredentials is a CredentialSource backed by fixed values.
type fakeCredentials struct {
	headers   map[string]string
	apiDomain string
	err       error
}

func (f *fakeCredentials) Headers(ctx context.Context) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.headers, nil
}

func (f *fakeCredentials) APIDomain() string {
	return f.apiDomain
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{
		Credentials: &fakeCredentials{
			headers: map[string]string{
				"Authorization": "Zoho-oauthtoken test-token",
				"Content-Type":  "application/json",
			},
			apiDomain: srv.URL,
		},
	})
	return client, srv
}

func TestClientRecords(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "111", "Last_Name": "Doe"},
				{"id": "222", "Last_Name": "Smith"},
			},
			"info": map[string]interface{}{
				"page": 1, "per_page": 200, "count": 2, "more_records": false,
			},
		})
	})

	page, err := client.Records(context.Background(), "Leads", ListOptions{})
	require.NoError(t, err)

	assert.Equal(t, "/crm/v2/Leads", gotPath)
	assert.Equal(t, "Zoho-oauthtoken test-token", gotAuth)
	assert.Equal(t, []string{"1"}, gotQuery["page"])
	assert.Equal(t, []string{"200"}, gotQuery["per_page"])
	assert.Equal(t, []string{"desc"}, gotQuery["sort_order"])
	assert.Equal(t, []string{"Modified_Time"}, gotQuery["sort_by"])

	require.Len(t, page.Records, 2)
	assert.Equal(t, "111", page.Records[0].ID())
	assert.False(t, page.Info.MoreRecords)
}

func TestClientRecordsCapsPerPage(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	})

	_, err := client.Records(context.Background(), "Leads", ListOptions{PerPage: 5000})
	require.NoError(t, err)
	assert.Equal(t, []string{"200"}, gotQuery["per_page"])
}

func TestClientRecordByID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v2/Contacts/999", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"id": "999", "Email": "a@b.c"}},
		})
	})

	rec, err := client.RecordByID(context.Background(), "Contacts", "999")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "a@b.c", rec["Email"])
}

func TestClientRecordByIDEmptyResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec, err := client.RecordByID(context.Background(), "Contacts", "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestClientSearchRecords(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v2/Leads/search", r.URL.Path)
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"id": "1"}},
			"info": map[string]interface{}{"count": 1},
		})
	})

	page, err := client.SearchRecords(context.Background(), "Leads", "(Email:equals:john@example.com)", ListOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"(Email:equals:john@example.com)"}, gotQuery["criteria"])
	assert.Empty(t, gotQuery["sort_order"])
	require.Len(t, page.Records, 1)
}

func TestClientCreateRecord(t *testing.T) {
	var gotBody recordEnvelope
	var gotTrigger []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v2/Leads", r.URL.Path)
		gotTrigger = r.URL.Query()["trigger"]
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"code": "SUCCESS", "details": map[string]interface{}{"id": "333"}},
			},
		})
	})

	result, err := client.CreateRecord(context.Background(), "Leads", Record{"Last_Name": "Doe"}, true)
	require.NoError(t, err)

	assert.Empty(t, gotTrigger)
	require.Len(t, gotBody.Data, 1)
	assert.Equal(t, "Doe", gotBody.Data[0]["Last_Name"])
	assert.Equal(t, "SUCCESS", result["code"])
}

func TestClientCreateRecordSuppressesWorkflow(t *testing.T) {
	var gotTrigger []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotTrigger = r.URL.Query()["trigger"]
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	})

	_, err := client.CreateRecord(context.Background(), "Leads", Record{"Last_Name": "Doe"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"workflow"}, gotTrigger)
}

func TestClientUpdateRecord(t *testing.T) {
	var gotBody recordEnvelope
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/crm/v2/Deals/444", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"code": "SUCCESS"}},
		})
	})

	fields := Record{"Stage": "Closed Won"}
	_, err := client.UpdateRecord(context.Background(), "Deals", "444", fields, true)
	require.NoError(t, err)

	// The id lives in the URL only and the caller's map stays untouched.
	require.Len(t, gotBody.Data, 1)
	assert.Equal(t, Record{"Stage": "Closed Won"}, gotBody.Data[0])
	assert.Equal(t, Record{"Stage": "Closed Won"}, fields)
}

func TestClientDeleteRecord(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/crm/v2/Leads/555", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"code": "SUCCESS"}},
		})
	})

	result, err := client.DeleteRecord(context.Background(), "Leads", "555")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", result["code"])
}

func TestClientBulkCreateRecordsLimit(t *testing.T) {
	client := NewClient(ClientConfig{Credentials: &fakeCredentials{}})

	records := make([]Record, MaxBulkRecords+1)
	for i := range records {
		records[i] = Record{"Last_Name": "X"}
	}

	_, err := client.BulkCreateRecords(context.Background(), "Leads", records, true)
	assert.ErrorIs(t, err, ErrBulkLimit)
}

func TestClientRelatedRecords(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v2/Accounts/1/Contacts", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"id": "c1"}},
		})
	})

	page, err := client.RelatedRecords(context.Background(), "Accounts", "1", "Contacts", ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
}

func TestClientConvertLead(t *testing.T) {
	var gotBody recordEnvelope
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v2/Leads/777/actions/convert", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"Contacts": "888"}},
		})
	})

	result, err := client.ConvertLead(context.Background(), "777", Record{"overwrite": true})
	require.NoError(t, err)

	require.Len(t, gotBody.Data, 1)
	assert.Equal(t, true, gotBody.Data[0]["overwrite"])
	assert.Equal(t, "888", result["Contacts"])
}

func TestClientRecordCount(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v2/Leads/actions/count", r.URL.Path)
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 42})
	})

	count, err := client.RecordCount(context.Background(), "Leads", "(Lead_Status:equals:New)")
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.Equal(t, []string{"(Lead_Status:equals:New)"}, gotQuery["criteria"])
}

func TestClientModules(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v2/settings/modules", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"modules": []map[string]interface{}{
				{"api_name": "Leads", "creatable": true},
				{"api_name": "Contacts", "creatable": true},
			},
		})
	})

	modules, err := client.Modules(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "Leads", modules[0].APIName)
	assert.True(t, modules[0].Creatable)
}

func TestClientFields(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v2/settings/fields", r.URL.Path)
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"fields": []map[string]interface{}{
				{
					"api_name": "Lead_Status", "data_type": "picklist",
					"pick_list_values": []map[string]interface{}{
						{"display_value": "New", "actual_value": "New"},
					},
				},
			},
		})
	})

	fields, err := client.Fields(context.Background(), "Leads")
	require.NoError(t, err)

	assert.Equal(t, []string{"Leads"}, gotQuery["module"])
	require.Len(t, fields, 1)
	assert.Equal(t, "picklist", fields[0].DataType)
	require.Len(t, fields[0].PickListValues, 1)
	assert.Equal(t, "New", fields[0].PickListValues[0].DisplayValue)
}

func TestClientOrganization(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v2/org", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"org": []map[string]interface{}{
				{"id": "org1", "company_name": "Acme", "country": "US"},
			},
		})
	})

	org, err := client.Organization(context.Background())
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, "Acme", org.CompanyName)
}

func TestClientUsers(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v2/users", r.URL.Path)
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"users": []map[string]interface{}{
				{
					"id": "u1", "full_name": "Jane Doe",
					"role":    map[string]interface{}{"name": "CEO"},
					"profile": map[string]interface{}{"name": "Administrator"},
				},
			},
		})
	})

	users, err := client.Users(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"AllUsers"}, gotQuery["type"])
	require.Len(t, users, 1)
	assert.Equal(t, "CEO", users[0].Role.Name)
}

func TestClientAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"INVALID_TOKEN"}`))
	})

	_, err := client.Records(context.Background(), "Leads", ListOptions{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "INVALID_TOKEN")
}

func TestClientCredentialErrorStopsRequest(t *testing.T) {
	credErr := errors.New("not authenticated")
	client := NewClient(ClientConfig{Credentials: &fakeCredentials{err: credErr}})

	_, err := client.Records(context.Background(), "Leads", ListOptions{})
	assert.ErrorIs(t, err, credErr)
}
