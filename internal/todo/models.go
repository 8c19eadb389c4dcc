package todo

import "time"

// Item is a single todo entry. ID is assigned by the database on insert and
// always travels as a string; the BSON _id keeps its native type.
type Item struct {
	ID          string    `json:"id" bson:"-"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Completed   bool      `json:"completed" bson:"completed"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	IPAddress   string    `json:"ip_address" bson:"ip_address"`
}

// NewItem builds an uncompleted item stamped with createdAt (stored in UTC).
func NewItem(name, description, clientAddress string, createdAt time.Time) *Item {
	return &Item{
		Name:        name,
		Description: description,
		Completed:   false,
		CreatedAt:   createdAt.UTC(),
		IPAddress:   clientAddress,
	}
}
