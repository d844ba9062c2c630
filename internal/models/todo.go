package models

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Todo struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Category     string    `json:"category" gorm:"not null"`
	Title        string    `json:"title" gorm:"not null"`
	Subtasks     Subtasks  `json:"subtasks"`
	StartDate    Date      `json:"start_date" gorm:"not null;index"`
	DueDate      Date      `json:"due_date" gorm:"not null"`
	Status       Status    `json:"status" gorm:"not null"`
	IsDeleted    bool      `json:"is_deleted" gorm:"not null"`
	DateModified time.Time `json:"date_modified" gorm:"not null"`
}

func (Todo) TableName() string {
	return "todos"
}

func (t *Todo) BeforeCreate(tx *gorm.DB) error {
	if t.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate todo ID: %w", err)
	}
	t.ID = id
	return nil
}

// Subtasks is an ordered list of opaque sub-items kept as a JSON array.
type Subtasks []interface{}

func (s Subtasks) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]interface{}(s))
}

func (s Subtasks) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *Subtasks) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = Subtasks{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Subtasks", src)
	}
	var items []interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to decode subtasks: %w", err)
	}
	if items == nil {
		items = []interface{}{}
	}
	*s = items
	return nil
}

func (Subtasks) GormDataType() string {
	return "json"
}

func (Subtasks) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "TEXT"
}

// TodoInput is the body of a create request. Pointers are not needed here:
// a missing required field and an empty one are rejected alike.
type TodoInput struct {
	Category  string   `json:"category"`
	Title     string   `json:"title"`
	Subtasks  Subtasks `json:"subtasks"`
	StartDate Date     `json:"start_date"`
	DueDate   Date     `json:"due_date"`
}

// TodoPatch is the body of a partial update; a nil field was not supplied.
type TodoPatch struct {
	Category  *string   `json:"category"`
	Title     *string   `json:"title"`
	Subtasks  *Subtasks `json:"subtasks"`
	StartDate *Date     `json:"start_date"`
	DueDate   *Date     `json:"due_date"`
	Status    *Status   `json:"status"`
	IsDeleted *bool     `json:"is_deleted"`
}

// UnmarshalJSON decodes a patch field by field. A field that is null or of
// the wrong type is treated as not supplied instead of failing the whole
// patch, so a non-boolean is_deleted is ignored and the rest still applies.
func (p *TodoPatch) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("update body must be a JSON object")
	}

	*p = TodoPatch{}
	var (
		category, title string
		subtasks        Subtasks
		start, due      Date
		status          Status
		isDeleted       bool
	)
	if field(fields, "category", &category) {
		p.Category = &category
	}
	if field(fields, "title", &title) {
		p.Title = &title
	}
	if field(fields, "subtasks", &subtasks) {
		if subtasks == nil {
			subtasks = Subtasks{}
		}
		p.Subtasks = &subtasks
	}
	if field(fields, "start_date", &start) {
		p.StartDate = &start
	}
	if field(fields, "due_date", &due) {
		p.DueDate = &due
	}
	if field(fields, "status", &status) {
		p.Status = &status
	}
	if field(fields, "is_deleted", &isDeleted) {
		p.IsDeleted = &isDeleted
	}
	return nil
}

// field decodes fields[name] into dest and reports whether it held a usable value.
func field(fields map[string]json.RawMessage, name string, dest interface{}) bool {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// TodoChanges is the resolved set of columns an update writes.
type TodoChanges struct {
	Category     *string
	Title        *string
	Subtasks     *Subtasks
	StartDate    *Date
	DueDate      *Date
	Status       *Status
	IsDeleted    *bool
	DateModified time.Time
}

// Columns keys the changes by column name for an UPDATE statement.
func (c TodoChanges) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"date_modified": c.DateModified,
	}
	if c.Category != nil {
		cols["category"] = *c.Category
	}
	if c.Title != nil {
		cols["title"] = *c.Title
	}
	if c.Subtasks != nil {
		cols["subtasks"] = *c.Subtasks
	}
	if c.StartDate != nil {
		cols["start_date"] = *c.StartDate
	}
	if c.DueDate != nil {
		cols["due_date"] = *c.DueDate
	}
	if c.Status != nil {
		cols["status"] = string(*c.Status)
	}
	if c.IsDeleted != nil {
		cols["is_deleted"] = *c.IsDeleted
	}
	return cols
}

func (c TodoChanges) ApplyTo(t *Todo) {
	if c.Category != nil {
		t.Category = *c.Category
	}
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Subtasks != nil {
		t.Subtasks = append(Subtasks{}, (*c.Subtasks)...)
	}
	if c.StartDate != nil {
		t.StartDate = *c.StartDate
	}
	if c.DueDate != nil {
		t.DueDate = *c.DueDate
	}
	if c.Status != nil {
		t.Status = *c.Status
	}
	if c.IsDeleted != nil {
		t.IsDeleted = *c.IsDeleted
	}
	t.DateModified = c.DateModified
}
