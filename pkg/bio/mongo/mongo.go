/*
Package mongo provides a way to keep quantized datasets on a MongoDB
database, one document per sample in a samples collection.
*/
package mongo

import (
	"context"

	"github.com/pkg/errors"
	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const (
	samplesCollectionName = "samples"
	// MaxSamplesPerInsert is the number of documents sent with a single
	// insert command by Write.
	MaxSamplesPerInsert = 500
)

// Document is a sample as stored on the samples collection.
type Document struct {
	ID       int64 `bson:"_id"`
	Label    int   `bson:"label"`
	Features []int `bson:"features"`
}

/*
Dataset reads and writes samples on the samples collection of the
default database of a MongoDB session.
*/
type Dataset struct {
	session *mgo.Session
}

/*
Dial takes a MongoDB connection URL and returns a Dataset that works on
the default database of the URL or an error if it fails to connect to it.
*/
func Dial(url string) (*Dataset, error) {
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	return Open(session), nil
}

// Open returns a Dataset that works on the default database of the
// given session. Closing the Dataset closes the session.
func Open(session *mgo.Session) *Dataset {
	return &Dataset{session: session}
}

// Close closes the underlying session.
func (ds *Dataset) Close() error {
	ds.session.Close()
	return nil
}

/*
Read takes a context and bio.LoadOptions and returns a dataset.Set with
the samples stored on the collection in ascending id order, the LoadStats
of the read or an error. Documents that do not make a valid sample are
skipped and counted.
*/
func (ds *Dataset) Read(ctx context.Context, opts bio.LoadOptions) (*dataset.Set, bio.LoadStats, error) {
	c := bio.NewCollector(opts)
	iter := ds.samplesCollection().Find(bson.M{}).Sort("_id").Iter()
	defer iter.Close()
	var doc Document
	for !c.Full() && iter.Next(&doc) {
		if err := ctx.Err(); err != nil {
			return nil, bio.LoadStats{}, err
		}
		c.Add(int(doc.ID), doc.Label, doc.Features)
		doc = Document{}
	}
	if err := iter.Err(); err != nil {
		return nil, bio.LoadStats{}, errors.Wrap(err, "iterating on samples")
	}
	set, stats := c.Finish()
	return set, stats, nil
}

/*
Write takes a context and a dataset.Set and inserts a document for every
sample of the set in ascending id order, returning the number of samples
written or an error.
*/
func (ds *Dataset) Write(ctx context.Context, set *dataset.Set) (int, error) {
	written := 0
	docs := make([]interface{}, 0, MaxSamplesPerInsert)
	flush := func() error {
		if err := ds.samplesCollection().Insert(docs...); err != nil {
			return errors.Wrapf(err, "inserting samples after %d", written)
		}
		written += len(docs)
		docs = docs[:0]
		return nil
	}
	for _, id := range set.IDs() {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		docs = append(docs, NewDocument(id, set))
		if len(docs) == MaxSamplesPerInsert {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if len(docs) > 0 {
		if err := flush(); err != nil {
			return written, err
		}
	}
	return written, nil
}

// NewDocument returns the Document for the sample with the given id in
// the set.
func NewDocument(id dataset.ID, set *dataset.Set) Document {
	smp, _ := set.Find(id)
	features := make([]int, len(smp.Features))
	for i, v := range smp.Features {
		features[i] = int(v)
	}
	return Document{ID: int64(id), Label: int(smp.Label), Features: features}
}

func (ds *Dataset) samplesCollection() *mgo.Collection {
	return ds.session.DB("").C(samplesCollectionName)
}
