package crm

// Record is a CRM record: a free-form field map keyed by API field name.
type Record map[string]interface{}

// ID returns the record's id field, or "" when absent.
func (r Record) ID() string {
	if id, ok := r["id"].(string); ok {
		return id
	}
	return ""
}

// PageInfo describes the pagination state of a record listing.
type PageInfo struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	Count       int  `json:"count"`
	MoreRecords bool `json:"more_records"`
}

// RecordPage is one page of records plus its pagination info.
type RecordPage struct {
	Records []Record `json:"data"`
	Info    PageInfo `json:"info"`
}

// Module describes a CRM module and what operations it permits.
type Module struct {
	APIName       string `json:"api_name"`
	ModuleName    string `json:"module_name"`
	SingularLabel string `json:"singular_label"`
	PluralLabel   string `json:"plural_label"`
	Creatable     bool   `json:"creatable"`
	Editable      bool   `json:"editable"`
	Deletable     bool   `json:"deletable"`
	Viewable      bool   `json:"viewable"`
}

// PickListValue is one allowed value of a picklist field.
type PickListValue struct {
	DisplayValue string `json:"display_value"`
	ActualValue  string `json:"actual_value"`
}

// Field describes one field of a CRM module.
type Field struct {
	APIName        string          `json:"api_name"`
	FieldLabel     string          `json:"field_label"`
	DataType       string          `json:"data_type"`
	Required       bool            `json:"required"`
	ReadOnly       bool            `json:"read_only"`
	Visible        bool            `json:"visible"`
	Length         int             `json:"length"`
	PickListValues []PickListValue `json:"pick_list_values,omitempty"`
}

// Role is a user's CRM role reference.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is a user's CRM profile reference.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is a CRM user account.
type User struct {
	ID           string  `json:"id"`
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	Role         Role    `json:"role"`
	Profile      Profile `json:"profile"`
	Status       string  `json:"status"`
	CreatedTime  string  `json:"created_time"`
	ModifiedTime string  `json:"modified_time"`
}

// Organization holds the CRM organization details.
type Organization struct {
	ID           string `json:"id"`
	CompanyName  string `json:"company_name"`
	PrimaryEmail string `json:"primary_email"`
	Website      string `json:"website"`
	Phone        string `json:"phone"`
	Country      string `json:"country"`
	TimeZone     string `json:"time_zone"`
	Currency     string `json:"currency"`
	McStatus     bool   `json:"mc_status"`
	GappsEnabled bool   `json:"gapps_enabled"`
}
