// Package models defines the domain types for the support console.
package models

// RootID is the id of the synthetic root node of every flow tree.
const RootID = "root"

// RootTitle is the display title of the synthetic root node.
const RootTitle = "ルート"

// FlowNode is one entry in the call-handling flowchart.
//
// A node with non-empty Content or Template is an answer node, whether or not it
// also has children. Children order is display order.
type FlowNode struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Type        string      `json:"type,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	Color       string      `json:"color,omitempty"`
	Description string      `json:"description,omitempty"`
	Content     string      `json:"content,omitempty"`
	Template    string      `json:"template,omitempty"`
	Children    []*FlowNode `json:"children,omitempty"`
}

// IsAnswer reports whether the node carries script content or a copy template.
func (n *FlowNode) IsAnswer() bool {
	return n.Content != "" || n.Template != ""
}

// IsLeaf reports whether the node has no children.
func (n *FlowNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *FlowNode) Clone() *FlowNode {
	if n == nil {
		return nil
	}
	out := *n
	if n.Children != nil {
		out.Children = make([]*FlowNode, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return &out
}

// NewRoot returns an empty root node.
func NewRoot() *FlowNode {
	return &FlowNode{ID: RootID, Title: RootTitle, Type: "root", Children: []*FlowNode{}}
}

// PhoneType classifies a directory entry.
type PhoneType string

// Phone entry types.
const (
	PhoneSafe    PhoneType = "safe"
	PhoneWarning PhoneType = "warning"
	PhoneDanger  PhoneType = "danger"
)

// ParsePhoneType maps a raw value to a PhoneType, defaulting to PhoneSafe.
func ParsePhoneType(s string) PhoneType {
	switch PhoneType(s) {
	case PhoneWarning, PhoneDanger:
		return PhoneType(s)
	default:
		return PhoneSafe
	}
}

// PhoneEntry is one row of the phone directory.
type PhoneEntry struct {
	ID     string    `json:"id"`
	Number string    `json:"number"`
	Name   string    `json:"name"`
	Note   string    `json:"note"`
	Type   PhoneType `json:"type"`
}

// AppConfig selects the data source mode and the spreadsheet URLs.
type AppConfig struct {
	UseGoogleSheets    bool   `json:"useGoogleSheets"`
	FlowSheetURL       string `json:"flowSheetUrl"`
	FlowConfigSheetURL string `json:"flowConfigSheetUrl,omitempty"`
	PhoneSheetURL      string `json:"phoneSheetUrl"`
}

// RemoteFlow reports whether the flow tree should be synced from a sheet.
func (c AppConfig) RemoteFlow() bool {
	return c.UseGoogleSheets && c.FlowSheetURL != ""
}

// Material is a document link that can be sent to a customer.
type Material struct {
	ID   string `json:"id" yaml:"id" toml:"id"`
	Name string `json:"name" yaml:"name" toml:"name"`
	URL  string `json:"url" yaml:"url" toml:"url"`
}
