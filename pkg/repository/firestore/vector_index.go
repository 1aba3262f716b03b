package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	registryCollection = "vector_indexes"
	recordsCollection  = "vectors_"
	embeddingField     = "Embedding"
	distanceField      = "Distance"
)

// indexDoc is the registry entry of one vector index
type indexDoc struct {
	Name      string    `firestore:"Name"`
	Dimension int       `firestore:"Dimension"`
	Metric    string    `firestore:"Metric"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

// recordDoc is the Firestore representation of model.IndexRecord.
// Embedding is stored as firestore.Vector32 so that FindNearest works.
type recordDoc struct {
	ID          string             `firestore:"ID"`
	Embedding   firestore.Vector32 `firestore:"Embedding"`
	PageContent string             `firestore:"PageContent"`
	DocLink     string             `firestore:"DocLink"`
	LinkTitle   string             `firestore:"LinkTitle"`
	TxtPath     string             `firestore:"TxtPath"`
	ChunkIndex  int                `firestore:"ChunkIndex"`
	Loc         string             `firestore:"Loc"`
	UpdatedAt   time.Time          `firestore:"UpdatedAt"`
	Distance    float64            `firestore:"Distance,omitempty"`
}

func toRecordDoc(r *model.IndexRecord, now time.Time) *recordDoc {
	return &recordDoc{
		ID:          r.ID,
		Embedding:   firestore.Vector32(r.Values),
		PageContent: r.Metadata.PageContent,
		DocLink:     r.Metadata.DocLink,
		LinkTitle:   r.Metadata.LinkTitle,
		TxtPath:     r.Metadata.TxtPath,
		ChunkIndex:  r.Metadata.ChunkIndex,
		Loc:         r.Metadata.Loc.String(),
		UpdatedAt:   now,
	}
}

func (d *recordDoc) metadata() (*model.Metadata, error) {
	loc, err := model.ParseLoc(d.Loc)
	if err != nil {
		return nil, err
	}
	return &model.Metadata{
		PageContent: d.PageContent,
		DocLink:     d.DocLink,
		LinkTitle:   d.LinkTitle,
		TxtPath:     d.TxtPath,
		ChunkIndex:  d.ChunkIndex,
		Loc:         loc,
	}, nil
}

// recordDocID maps a record ID to a valid Firestore document ID. Record IDs
// derive from file paths and may contain '/'.
func recordDocID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

type vectorIndex struct {
	f *Firestore
}

func newVectorIndex(f *Firestore) *vectorIndex {
	return &vectorIndex{f: f}
}

func (v *vectorIndex) registry() *firestore.CollectionRef {
	return v.f.collection(registryCollection)
}

func (v *vectorIndex) recordsCollectionName(indexName string) string {
	return v.f.collectionPrefix + recordsCollection + indexName
}

func (v *vectorIndex) records(indexName string) *firestore.CollectionRef {
	return v.f.client.Collection(v.recordsCollectionName(indexName))
}

// indexConfig is the fireconf declaration of the vector index backing indexName
func (v *vectorIndex) indexConfig(indexName string, dimension int) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: v.recordsCollectionName(indexName),
				Indexes: []fireconf.Index{
					{
						Fields: []fireconf.IndexField{
							{
								Path: embeddingField,
								Vector: &fireconf.VectorConfig{
									Dimension: dimension,
								},
							},
						},
					},
				},
			},
		},
	}
}

func (v *vectorIndex) getIndex(ctx context.Context, name string) (*indexDoc, error) {
	doc, err := v.registry().Doc(name).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrIndexNotFound, "index not found", goerr.V("name", name))
		}
		return nil, goerr.Wrap(err, "failed to get index", goerr.V("name", name))
	}

	var d indexDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal index", goerr.V("name", name))
	}
	return &d, nil
}

func (v *vectorIndex) ListIndexes(ctx context.Context) ([]string, error) {
	iter := v.registry().Documents(ctx)
	defer iter.Stop()

	names := make([]string, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate indexes")
		}
		names = append(names, doc.Ref.ID)
	}

	return names, nil
}

func (v *vectorIndex) CreateIndex(ctx context.Context, spec model.IndexSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	doc := &indexDoc{
		Name:      spec.Name,
		Dimension: spec.Dimension,
		Metric:    string(spec.Metric),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := v.registry().Doc(spec.Name).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(model.ErrIndexExists, "failed to create index", goerr.V("name", spec.Name))
		}
		return goerr.Wrap(err, "failed to register index", goerr.V("name", spec.Name))
	}

	if err := MigrateIndex(ctx, v.f.projectID, v.f.databaseID, v.indexConfig(spec.Name, spec.Dimension)); err != nil {
		return goerr.Wrap(err, "failed to create vector index",
			goerr.V("name", spec.Name),
			goerr.V("dimension", spec.Dimension))
	}

	logging.From(ctx).Info("vector index requested",
		"name", spec.Name,
		"dimension", spec.Dimension,
		"collection", v.recordsCollectionName(spec.Name))
	return nil
}

// DescribeIndex reports the index ready once fireconf has no pending
// migration step for its vector index.
func (v *vectorIndex) DescribeIndex(ctx context.Context, name string) (*model.IndexStatus, error) {
	d, err := v.getIndex(ctx, name)
	if err != nil {
		return nil, err
	}

	steps, err := PlanIndex(ctx, v.f.projectID, v.f.databaseID, v.indexConfig(name, d.Dimension))
	if err != nil {
		return nil, err
	}

	return &model.IndexStatus{
		Name:      d.Name,
		Dimension: d.Dimension,
		Metric:    model.Metric(d.Metric),
		Ready:     len(steps) == 0,
	}, nil
}

func (v *vectorIndex) Upsert(ctx context.Context, indexName string, records []*model.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	d, err := v.getIndex(ctx, indexName)
	if err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Values) != d.Dimension {
			return goerr.Wrap(model.ErrVectorDimension, "failed to upsert",
				goerr.V("index", indexName),
				goerr.V("id", r.ID),
				goerr.V("expected", d.Dimension),
				goerr.V("actual", len(r.Values)))
		}
	}

	now := time.Now().UTC()
	collection := v.records(indexName)

	bulkWriter := v.f.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(records))
	for _, r := range records {
		job, err := bulkWriter.Set(collection.Doc(recordDocID(r.ID)), toRecordDoc(r, now))
		if err != nil {
			bulkWriter.End()
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("id", r.ID))
		}
		jobs = append(jobs, job)
	}
	bulkWriter.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write record",
				goerr.V("index", indexName),
				goerr.V("id", records[i].ID))
		}
	}

	return nil
}

func (v *vectorIndex) Query(ctx context.Context, indexName string, query model.VectorQuery) ([]*model.Match, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	d, err := v.getIndex(ctx, indexName)
	if err != nil {
		return nil, err
	}
	if len(query.Vector) != d.Dimension {
		return nil, goerr.Wrap(model.ErrVectorDimension, "failed to query",
			goerr.V("index", indexName),
			goerr.V("expected", d.Dimension),
			goerr.V("actual", len(query.Vector)))
	}

	vq := v.records(indexName).
		FindNearest(embeddingField, firestore.Vector32(query.Vector), query.TopK, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{DistanceResultField: distanceField})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	matches := make([]*model.Match, 0, query.TopK)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results", goerr.V("index", indexName))
		}

		var r recordDoc
		if err := doc.DataTo(&r); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal record", goerr.V("docID", doc.Ref.ID))
		}

		// cosine distance is 1 - similarity
		m := &model.Match{ID: r.ID, Score: 1 - r.Distance}
		if query.IncludeValues {
			m.Values = model.Vector(r.Embedding)
		}
		if query.IncludeMetadata {
			md, err := r.metadata()
			if err != nil {
				return nil, goerr.Wrap(err, "failed to decode record metadata", goerr.V("id", r.ID))
			}
			m.Metadata = md
		}
		matches = append(matches, m)

		if len(matches) >= query.TopK {
			break
		}
	}

	return matches, nil
}
