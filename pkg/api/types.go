package api

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port int
	Bind string
	// APIKey protects the /api/v1 routes when set. Empty leaves the
	// server open, which suits local inspection of a single file.
	APIKey string
}

// VariableSummary is one variable in the /variables listing
type VariableSummary struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Records  int    `json:"records"`
	Shape    []int  `json:"shape,omitempty"`
	RecVary  bool   `json:"rec_vary"`
	Sparse   string `json:"sparse,omitempty"`
}

// VariableDetail is the full /variables/{name} response
type VariableDetail struct {
	VariableSummary
	NumElems    int                    `json:"num_elems"`
	Compression string                 `json:"compression,omitempty"`
	Pad         interface{}            `json:"pad,omitempty"`
	Attributes  map[string]interface{} `json:"attributes"`
}

// DataResponse is the /variables/{name}/data response
type DataResponse struct {
	Name        string      `json:"name"`
	DataType    string      `json:"data_type"`
	FirstRecord int         `json:"first_record"`
	Shape       []int       `json:"shape"`
	Values      interface{} `json:"values"`
}
