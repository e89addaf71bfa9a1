package models

// Interest is an entry in the shared interest vocabulary
type Interest struct {
	ID   int64
	Name string
}
