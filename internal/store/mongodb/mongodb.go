// Package mongodb is the document-store backend. One client is dialed per
// process and reused across every request; the driver's own pool handles
// concurrent use. A text index over the searchable fields backs ranked
// retrieval, with the substring scan as the degraded path.
package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/recallkb/recall/internal/store"
)

const (
	defaultDatabase = "recall"
	collectionName  = "notes"
)

// Store is the MongoDB-backed note store.
type Store struct {
	client *mongo.Client
	notes  *mongo.Collection
}

// Open dials the cluster, verifies connectivity, and ensures the text
// index exists. Callers hold the returned Store for the process lifetime.
func Open(ctx context.Context, uri string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	dbName := defaultDatabase
	if parsed, err := connstringDatabase(uri); err == nil && parsed != "" {
		dbName = parsed
	}

	s := &Store{
		client: client,
		notes:  client.Database(dbName).Collection(collectionName),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// connstringDatabase pulls the default database out of a mongodb URI,
// e.g. mongodb://host:27017/notes?w=majority -> "notes".
func connstringDatabase(uri string) (string, error) {
	re := regexp.MustCompile(`^mongodb(?:\+srv)?://[^/]+/([^?/]+)`)
	m := re.FindStringSubmatch(uri)
	if len(m) < 2 {
		return "", fmt.Errorf("no database in uri")
	}
	return m[1], nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.notes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "content", Value: "text"},
			{Key: "insights", Value: "text"},
			{Key: "tags", Value: "text"},
			{Key: "summary", Value: "text"},
		},
	})
	if err != nil {
		return fmt.Errorf("create text index: %w", err)
	}
	_, err = s.notes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updatedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create updatedAt index: %w", err)
	}
	return nil
}

type linkDoc struct {
	Label string `bson:"label"`
	URL   string `bson:"url"`
}

type noteDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	Content        string             `bson:"content"`
	Insights       []string           `bson:"insights"`
	Summary        string             `bson:"summary"`
	Tags           []string           `bson:"tags"`
	Links          []linkDoc          `bson:"links"`
	Confidence     float64            `bson:"confidence"`
	LastAccessedAt *time.Time         `bson:"lastAccessedAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func toDoc(n *store.Note) (*noteDoc, error) {
	d := &noteDoc{
		Title:          n.Title,
		Content:        n.Content,
		Insights:       n.Insights,
		Summary:        n.Summary,
		Tags:           n.Tags,
		Links:          make([]linkDoc, 0, len(n.Links)),
		Confidence:     n.Confidence,
		LastAccessedAt: n.LastAccessedAt,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
	for _, l := range n.Links {
		d.Links = append(d.Links, linkDoc{Label: l.Label, URL: l.URL})
	}
	if n.ID != "" {
		oid, err := primitive.ObjectIDFromHex(n.ID)
		if err != nil {
			return nil, store.ErrNotFound
		}
		d.ID = oid
	}
	return d, nil
}

func fromDoc(d *noteDoc) store.Note {
	n := store.Note{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Content:        d.Content,
		Insights:       d.Insights,
		Summary:        d.Summary,
		Tags:           d.Tags,
		Links:          make([]store.Link, 0, len(d.Links)),
		Confidence:     d.Confidence,
		LastAccessedAt: d.LastAccessedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	for _, l := range d.Links {
		n.Links = append(n.Links, store.Link{Label: l.Label, URL: l.URL})
	}
	return n
}

// objectID converts an opaque note id, mapping malformed ids to
// ErrNotFound: an id that cannot exist is simply not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return oid, nil
}

// Insert persists a new note, assigning its id and timestamps.
func (s *Store) Insert(ctx context.Context, n *store.Note) error {
	if n.Confidence == 0 {
		n.Confidence = 0.9
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	doc, err := toDoc(n)
	if err != nil {
		return err
	}
	res, err := s.notes.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid.Hex()
	}
	return nil
}

// Get returns the note with the given id, or store.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*store.Note, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc noteDoc
	err = s.notes.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	n := fromDoc(&doc)
	return &n, nil
}

// Replace overwrites the stored document wholesale and bumps updatedAt.
func (s *Store) Replace(ctx context.Context, n *store.Note) error {
	oid, err := objectID(n.ID)
	if err != nil {
		return err
	}

	n.UpdatedAt = time.Now().UTC()
	doc, err := toDoc(n)
	if err != nil {
		return err
	}

	res, err := s.notes.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return fmt.Errorf("replace note: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Touch records a read by setting lastAccessedAt.
func (s *Store) Touch(ctx context.Context, id string, at time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.notes.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"lastAccessedAt": at}})
	if err != nil {
		return fmt.Errorf("touch note: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes the note, or returns store.ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.notes.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// List returns up to limit notes, newest-updated first.
func (s *Store) List(ctx context.Context, limit int) ([]store.Note, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.notes.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return drain(ctx, cur)
}

// All returns every note for the decay scan.
func (s *Store) All(ctx context.Context) ([]store.Note, error) {
	cur, err := s.notes.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("all notes: %w", err)
	}
	return drain(ctx, cur)
}

// SearchText runs $text search ranked by textScore. Errors (for example a
// missing text index) surface to the caller, which falls back to
// SearchSubstring.
func (s *Store) SearchText(ctx context.Context, query string, limit int) ([]store.Note, error) {
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetLimit(int64(limit))
	cur, err := s.notes.Find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return drain(ctx, cur)
}

// SearchSubstring matches the query as a case-insensitive literal substring
// of title, content or summary, newest-updated first.
func (s *Store) SearchSubstring(ctx context.Context, query string, limit int) ([]store.Note, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"content": pattern},
		bson.M{"summary": pattern},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.notes.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	return drain(ctx, cur)
}

// BulkSetConfidence applies all updates in one BulkWrite.
func (s *Store) BulkSetConfidence(ctx context.Context, updates []store.ConfidenceUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		oid, err := objectID(u.ID)
		if err != nil {
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": oid}).
			SetUpdate(bson.M{"$set": bson.M{"confidence": u.Confidence}}))
	}
	if len(models) == 0 {
		return 0, nil
	}

	res, err := s.notes.BulkWrite(ctx, models)
	if err != nil {
		return 0, fmt.Errorf("bulk confidence write: %w", err)
	}
	return int(res.ModifiedCount), nil
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func drain(ctx context.Context, cur *mongo.Cursor) ([]store.Note, error) {
	defer cur.Close(ctx)

	var notes []store.Note
	for cur.Next(ctx) {
		var doc noteDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode note: %w", err)
		}
		notes = append(notes, fromDoc(&doc))
	}
	return notes, cur.Err()
}
