// AngelaMos | 2026
// dto.go

package history

import (
	"encoding/json"
	"time"
)

type ListParams struct {
	Page     int
	PageSize int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type EntryResponse struct {
	ID         string          `json:"id"`
	TargetID   string          `json:"target_id"`
	TargetType TargetType      `json:"target_type"`
	Action     string          `json:"action"`
	Details    json.RawMessage `json:"details"`
	ActionDate time.Time       `json:"action_date"`
}

func ToEntryResponse(e *Entry) EntryResponse {
	details := e.Details
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}
	return EntryResponse{
		ID:         e.ID,
		TargetID:   e.TargetID,
		TargetType: e.TargetType,
		Action:     e.Action,
		Details:    details,
		ActionDate: e.ActionDate,
	}
}

func ToEntryResponseList(entries []Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, ToEntryResponse(&entries[i]))
	}
	return out
}
