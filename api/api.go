// Package api holds the lakeFS models exchanged by the experimental and
// config endpoints.
package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bndr/gotabulate"
)

const maxCellSize = 85

// Error is the generic error payload returned by the lakeFS API.
type Error struct {
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// DiffProperties describes one diff type the server can compute.
type DiffProperties struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// OTFDiffs is the response of GET /otf/diffs.
type OTFDiffs struct {
	Diffs []DiffProperties `json:"diffs,omitempty"`
}

// Names returns the identifiers of the supported diff types.
func (d *OTFDiffs) Names() []string {
	names := make([]string, 0, len(d.Diffs))
	for _, diff := range d.Diffs {
		names = append(names, diff.Name)
	}
	return names
}

// Supports reports whether a diff type with the given name is listed.
func (d *OTFDiffs) Supports(name string) bool {
	for _, diff := range d.Diffs {
		if strings.EqualFold(diff.Name, name) {
			return true
		}
	}
	return false
}

// PrettyTable renders the diff types as a grid.
func (d *OTFDiffs) PrettyTable() string {
	if len(d.Diffs) == 0 {
		return "[]"
	}
	rows := make([][]any, 0, len(d.Diffs))
	for _, diff := range d.Diffs {
		rows = append(rows, []any{diff.Name, diff.DisplayName, diff.Description})
	}
	return render([]string{"name", "display_name", "description"}, rows)
}

// OtfDiffList diff types.
const (
	DiffTypeChanged = "changed"
	DiffTypeCreated = "created"
	DiffTypeDropped = "dropped"
)

// OtfDiffEntry operation types.
const (
	OperationTypeCreate = "create"
	OperationTypeUpdate = "update"
	OperationTypeDelete = "delete"
)

// OtfDiffEntry is a single table history operation found between two refs.
type OtfDiffEntry struct {
	Id               string         `json:"id"`
	Timestamp        int64          `json:"timestamp"`
	Operation        string         `json:"operation"`
	OperationContent map[string]any `json:"operation_content"`
	OperationType    string         `json:"operation_type"`
}

// OtfDiffList is the response of the table diff endpoint.
type OtfDiffList struct {
	DiffType string         `json:"diff_type,omitempty"`
	Results  []OtfDiffEntry `json:"results"`
}

// Empty reports whether the two refs hold the same table history.
func (l *OtfDiffList) Empty() bool {
	return len(l.Results) == 0
}

// PrettyTable renders the diff entries as a grid, one row per operation.
func (l *OtfDiffList) PrettyTable() string {
	if len(l.Results) == 0 {
		return fmt.Sprintf("%s: <no changes>", l.diffTypeOrUnknown())
	}
	rows := make([][]any, 0, len(l.Results))
	for _, entry := range l.Results {
		rows = append(rows, []any{
			entry.Id,
			entry.Timestamp,
			entry.Operation,
			entry.OperationType,
			compactContent(entry.OperationContent),
		})
	}
	table := render([]string{"id", "timestamp", "operation", "operation_type", "operation_content"}, rows)
	return fmt.Sprintf("%s:\n%s", l.diffTypeOrUnknown(), table)
}

func (l *OtfDiffList) diffTypeOrUnknown() string {
	if l.DiffType == "" {
		return "unknown"
	}
	return l.DiffType
}

// VersionConfig is the response of GET /config/version.
type VersionConfig struct {
	Version            string `json:"version,omitempty"`
	VersionContext     string `json:"version_context,omitempty"`
	LatestVersion      string `json:"latest_version,omitempty"`
	UpgradeRecommended bool   `json:"upgrade_recommended,omitempty"`
	UpgradeUrl         string `json:"upgrade_url,omitempty"`
}

// LoginInformation is the request body of POST /auth/login.
type LoginInformation struct {
	AccessKeyId     string `json:"access_key_id" validate:"required"`
	SecretAccessKey string `json:"secret_access_key" validate:"required"`
}

// AuthenticationToken is the response of POST /auth/login.
type AuthenticationToken struct {
	Token string `json:"token"`
	// TokenExpiration is a unix timestamp in seconds.
	TokenExpiration int64 `json:"token_expiration,omitempty"`
}

// OtfDiffParams holds the query parameters of the table diff endpoint.
type OtfDiffParams struct {
	// TablePath is a path to the table location under the specified ref.
	TablePath string `schema:"table_path" validate:"required"`
	// Type is the type of otf.
	Type string `schema:"type" validate:"required"`
}

func compactContent(content map[string]any) string {
	if len(content) == 0 {
		return ""
	}
	b, err := json.Marshal(content)
	if err != nil {
		keys := make([]string, 0, len(content))
		for k := range content {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ",")
	}
	return string(b)
}

func render(headers []string, rows [][]any) string {
	t := gotabulate.Create(rows)
	t.SetHeaders(headers)
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(maxCellSize)
	return t.Render("grid")
}
