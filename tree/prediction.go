package tree

// NoLabel is the label returned by trees that cannot make a prediction
// for a sample.
const NoLabel uint8 = 255

// PredictionError represents an error related with predictions
type PredictionError string

// ErrEmptyTree is returned when asking a tree without nodes to predict.
const ErrEmptyTree = PredictionError("tree has no nodes")

// ErrMissingFeature is returned when a sample lacks the feature a node
// splits on.
const ErrMissingFeature = PredictionError("sample has no value for the split feature")

func (pe PredictionError) Error() string {
	return string(pe)
}
