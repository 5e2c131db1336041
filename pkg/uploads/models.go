// Package uploads records uploaded payout spreadsheets and stores their bytes.
// Uploads are never deleted: a re-upload under the same original filename
// deactivates the earlier rows so at most one per name stays active.
package uploads

import "time"

// UploadedTable is the GORM model for one uploaded payout spreadsheet.
type UploadedTable struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	OriginalName string    `gorm:"column:original_name;index:idx_upload_name_active,priority:1;not null"`
	Path         string    `gorm:"column:path;not null"`
	UploadedAt   time.Time `gorm:"column:uploaded_at;index;not null"`
	Active       bool      `gorm:"column:active;index:idx_upload_name_active,priority:2;not null"`
	UploadedBy   string    `gorm:"column:uploaded_by"`
	RowCount     int       `gorm:"column:row_count"`
}

// TableName returns the GORM table name.
func (UploadedTable) TableName() string { return "uploaded_tables" }
