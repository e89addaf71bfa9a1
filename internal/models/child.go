package models

import "time"

// Child represents a child profile owned by a parent
type Child struct {
	ID        int64
	ParentID  int64
	Name      string
	Age       string
	Bio       string
	Interests []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
