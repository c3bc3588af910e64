package core

// ProcessEntry describes one live server session.
// Entries are fetched live and only ever referenced by ID for a kill request.
type ProcessEntry struct {
	ID       string `json:"id"`
	User     string `json:"user,omitempty"`
	Host     string `json:"host,omitempty"`
	Database string `json:"database,omitempty"`
	Command  string `json:"command,omitempty"`
	Time     string `json:"time,omitempty"`
	State    string `json:"state,omitempty"`
	Query    string `json:"query,omitempty"`
	Raw      Row    `json:"raw"`
}
