package core

// Cell is the display form of one value in a result grid.
type Cell struct {
	Text      string `json:"text"`
	Link      string `json:"link,omitempty"`
	Null      bool   `json:"null,omitempty"`
	Binary    bool   `json:"binary,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Link is an action offered for a table (select, show structure, alter, insert).
type Link struct {
	Action string `json:"action"`
	Label  string `json:"label"`
}

// Option is a value/label pair offered in a selector.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
