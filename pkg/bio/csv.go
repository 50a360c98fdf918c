package bio

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/viettran-edgeAI/MCU-sub008/dataset"
)

const (
	// DefaultMaxRows is the number of samples loaded from a source unless
	// told otherwise.
	DefaultMaxRows = 10000
	// MaxLabels is the number of distinct labels a sample may carry.
	MaxLabels = 32
	// MaxFeatures is the number of features a sample may carry.
	MaxFeatures = 256
)

/*
LoadOptions holds the knobs of every dataset reader in this package.

Header makes CSV readers skip the first row. MaxRows bounds the number of
samples loaded, DefaultMaxRows if 0. GroupsPerFeature is the exclusive
upper bound of feature bins, dataset.DefaultGroupsPerFeature if 0.
*/
type LoadOptions struct {
	Header           bool
	MaxRows          int
	GroupsPerFeature int
	Logger           *slog.Logger
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.MaxRows <= 0 {
		o.MaxRows = DefaultMaxRows
	}
	if o.GroupsPerFeature <= 0 {
		o.GroupsPerFeature = dataset.DefaultGroupsPerFeature
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// LoadStats counts the rows a reader went through.
type LoadStats struct {
	Rows    int `json:"rows"`
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

/*
ReadCSVSet takes an io.Reader for a CSV stream and LoadOptions and returns
a dataset.Set with the samples parsed from it, the LoadStats of the read
or an error.

Every row is expected to be a label followed by the bin of every feature,
all of them non-negative integers. The number of features is fixed by the
first valid row. Rows with a different number of fields, empty or
unparsable tokens, or out of range values are skipped and counted. Samples
are given consecutive ids starting at 0 in the order they are read.
*/
func ReadCSVSet(reader io.Reader, opts LoadOptions) (*dataset.Set, LoadStats, error) {
	c := NewCollector(opts)
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	l := 1
	if opts.Header {
		if _, err := r.Read(); err != nil {
			if err == io.EOF {
				set, stats := c.Finish()
				return set, stats, nil
			}
			return nil, LoadStats{}, errors.Wrap(err, "reading header")
		}
		l++
	}
	for ; !c.Full(); l++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				c.Skip(l, err)
				continue
			}
			return nil, LoadStats{}, errors.Wrap(err, "reading body")
		}
		label, features, err := parseCSVRow(row)
		if err != nil {
			c.Skip(l, err)
			continue
		}
		c.Add(l, label, features)
	}
	set, stats := c.Finish()
	return set, stats, nil
}

/*
ReadCSVSetFromFilePath takes a filepath string and LoadOptions, opens the
file to which the filepath points to and uses ReadCSVSet to return a
dataset.Set read from it. An empty filepath reads from the standard input.
It will return an error if the given filepath cannot be opened for reading.
*/
func ReadCSVSetFromFilePath(filepath string, opts LoadOptions) (*dataset.Set, LoadStats, error) {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return nil, LoadStats{}, errors.Wrap(err, "reading dataset")
		}
		defer f.Close()
	}
	set, stats, err := ReadCSVSet(f, opts)
	if err != nil {
		err = errors.Wrapf(err, "parsing CSV file %s", filepath)
	}
	return set, stats, err
}

/*
WriteCSVSet takes an io.Writer and a dataset.Set and writes every sample of
the set as a CSV row, in ascending id order, with the same layout ReadCSVSet
expects. If header is true a first row naming the columns is written.
*/
func WriteCSVSet(writer io.Writer, set *dataset.Set, header bool) error {
	w := csv.NewWriter(writer)
	nf := set.NumFeatures()
	if header {
		row := make([]string, 0, nf+1)
		row = append(row, "label")
		for i := 0; i < nf; i++ {
			row = append(row, "f"+strconv.Itoa(i))
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "writing header")
		}
	}
	row := make([]string, nf+1)
	for _, id := range set.IDs() {
		smp, _ := set.Find(id)
		row = row[:0]
		row = append(row, strconv.Itoa(int(smp.Label)))
		for _, v := range smp.Features {
			row = append(row, strconv.Itoa(int(v)))
		}
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "writing sample %d", id)
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing CSV")
}

// WriteCSVSetToFilePath creates or truncates the file at filepath and
// writes the set to it with WriteCSVSet.
func WriteCSVSetToFilePath(filepath string, set *dataset.Set, header bool) error {
	f, err := os.Create(filepath)
	if err != nil {
		return errors.Wrap(err, "creating CSV file")
	}
	if err := WriteCSVSet(f, set, header); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing CSV file %s", filepath)
	}
	return errors.Wrapf(f.Close(), "closing CSV file %s", filepath)
}

func parseCSVRow(row []string) (int, []int, error) {
	if len(row) < 2 {
		return 0, nil, errors.Errorf("expected a label and at least one feature, got %d fields", len(row))
	}
	label, err := parseInt(row[0])
	if err != nil {
		return 0, nil, errors.Wrap(err, "parsing label")
	}
	features := make([]int, len(row)-1)
	for i, tok := range row[1:] {
		v, err := parseInt(tok)
		if err != nil {
			return 0, nil, errors.Wrapf(err, "parsing feature %d", i)
		}
		features[i] = v
	}
	return label, features, nil
}

func parseInt(tok string) (int, error) {
	if tok == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, errors.Wrapf(err, "converting %q", tok)
	}
	return v, nil
}
