package admin

type bulkStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

type bulkStatusResponse struct {
	Updated int `json:"updated"`
}

type moderateRequest struct {
	Status string `json:"status"`
	Badge  string `json:"badge"`
}
