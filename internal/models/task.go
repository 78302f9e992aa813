package models

import (
	"time"
)

// Task represents a task item. ID is the remote document id and is never
// stored as a document field.
type Task struct {
	ID        string    `firestore:"-" json:"id"`
	Title     string    `firestore:"title" json:"title"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	DeviceID  string    `firestore:"deviceId" json:"deviceId"`
}

// NewTask is the document written to the remote store on insert.
type NewTask struct {
	Title     string    `firestore:"title"`
	CreatedAt time.Time `firestore:"createdAt"`
	DeviceID  string    `firestore:"deviceId"`
}

// IDs returns the set of ids present in tasks.
func IDs(tasks []Task) map[string]struct{} {
	ids := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		ids[t.ID] = struct{}{}
	}
	return ids
}
