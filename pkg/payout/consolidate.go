package payout

import (
	"sort"
	"time"
)

// SourceTable is the parsed content of one active upload.
type SourceTable struct {
	Name       string
	UploadedAt time.Time
	Records    []EmployeeRecord
}

type taggedRecord struct {
	uploadedAt time.Time
	record     EmployeeRecord
}

// Consolidate merges the records of every source table into one view holding
// exactly one record per employee id. When an id appears in several tables
// the record from the most recently uploaded table wins; within one table the
// first row wins. The result is ordered newest upload first.
func Consolidate(tables []SourceTable) []EmployeeRecord {
	var tagged []taggedRecord
	for _, t := range tables {
		for _, r := range t.Records {
			tagged = append(tagged, taggedRecord{uploadedAt: t.UploadedAt, record: r})
		}
	}

	sort.SliceStable(tagged, func(i, j int) bool {
		return tagged[i].uploadedAt.After(tagged[j].uploadedAt)
	})

	seen := make(map[string]struct{}, len(tagged))
	view := make([]EmployeeRecord, 0, len(tagged))
	for _, tr := range tagged {
		if _, dup := seen[tr.record.EmployeeID]; dup {
			continue
		}
		seen[tr.record.EmployeeID] = struct{}{}
		view = append(view, tr.record)
	}
	return view
}
