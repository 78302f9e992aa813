package remote

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ytakahashi/device-tasks/internal/models"
)

// Firestore implements Store on a Cloud Firestore collection.
type Firestore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore connects to the project's database. An empty collection
// means DefaultCollection.
func NewFirestore(ctx context.Context, projectID, collection string, opts ...option.ClientOption) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	if collection == "" {
		collection = DefaultCollection
	}

	return &Firestore{
		client:     client,
		collection: collection,
	}, nil
}

func (fs *Firestore) Close() error {
	return fs.client.Close()
}

func (fs *Firestore) byDevice(deviceID string) firestore.Query {
	return fs.client.Collection(fs.collection).Where("deviceId", "==", deviceID)
}

func (fs *Firestore) Add(ctx context.Context, task models.NewTask) (models.Task, error) {
	ref, _, err := fs.client.Collection(fs.collection).Add(ctx, task)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	return models.Task{
		ID:        ref.ID,
		Title:     task.Title,
		CreatedAt: task.CreatedAt,
		DeviceID:  task.DeviceID,
	}, nil
}

func (fs *Firestore) Query(ctx context.Context, deviceID string) ([]models.Task, error) {
	iter := fs.byDevice(deviceID).Documents(ctx)
	defer iter.Stop()

	tasks := []models.Task{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate tasks: %w", err)
		}

		task, err := toTask(doc)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

func (fs *Firestore) Delete(ctx context.Context, id string) error {
	_, err := fs.client.Collection(fs.collection).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (fs *Firestore) Watch(ctx context.Context, deviceID string) Snapshots {
	return &firestoreSnapshots{iter: fs.byDevice(deviceID).Snapshots(ctx)}
}

type firestoreSnapshots struct {
	iter *firestore.QuerySnapshotIterator
}

func (s *firestoreSnapshots) Next() ([]models.Task, error) {
	snap, err := s.iter.Next()
	if err != nil {
		return nil, err
	}

	docs, err := snap.Documents.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	tasks := make([]models.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := toTask(doc)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *firestoreSnapshots) Stop() {
	s.iter.Stop()
}

// toTask decodes a document; the id comes from the document reference.
func toTask(doc *firestore.DocumentSnapshot) (models.Task, error) {
	var task models.Task
	if err := doc.DataTo(&task); err != nil {
		return models.Task{}, fmt.Errorf("failed to unmarshal task %s: %w", doc.Ref.ID, err)
	}
	task.ID = doc.Ref.ID
	return task, nil
}
