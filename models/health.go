package models

type SystemHealth struct {
	Status        string  `json:"status"`
	Store         string  `json:"store"`
	StoreError    string  `json:"storeError,omitempty"`
	MemoryUsage   float64 `json:"memoryUsage"`
	ProcessRSS    uint64  `json:"processRss"`
	Goroutines    int     `json:"goroutines"`
	WSConnections int     `json:"wsConnections"`
	Uptime        string  `json:"uptime"`
}
