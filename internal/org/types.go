// Package org holds the per-run Salesforce metadata values passed between the
// credential resolver, the metadata fetcher and the report renderer.
package org

import "strings"

// Selection bounds for a single run.
const (
	MinSelection = 1
	MaxSelection = 3
)

// Credentials is the access token / instance URL pair obtained from the
// Salesforce CLI. Username and APIVersion are informational.
type Credentials struct {
	InstanceURL string
	AccessToken string
	Username    string
	APIVersion  string
}

// MaskedToken returns the token with everything but its last four characters hidden.
func (c Credentials) MaskedToken() string {
	if len(c.AccessToken) <= 4 {
		return strings.Repeat("*", len(c.AccessToken))
	}
	return strings.Repeat("*", 8) + c.AccessToken[len(c.AccessToken)-4:]
}

// ObjectDescriptor is one entry of the describe-global listing.
type ObjectDescriptor struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
}

// FieldDescriptor is one field of a described object.
type FieldDescriptor struct {
	Label string `json:"label"`
	Name  string `json:"name"`
}

// ObjectFieldSet groups the fields of one selected object.
type ObjectFieldSet struct {
	ObjectName string            `json:"objectName"`
	Fields     []FieldDescriptor `json:"fields"`
}

// ObjectNames returns the names of objs in order.
func ObjectNames(objs []ObjectDescriptor) []string {
	names := make([]string, len(objs))
	for i, o := range objs {
		names[i] = o.Name
	}
	return names
}
