package nn

import (
	"github.com/sngp-ml/sngp/internal/tensor"
)

// Aggregation declares how a parameter should be combined across replicas in
// a distributed deployment. The library records the policy as metadata; the
// replication itself is the host framework's concern.
type Aggregation int

// Supported aggregation policies.
const (
	// AggregationNone leaves the parameter replica-local.
	AggregationNone Aggregation = iota
	// AggregationMean averages the parameter across replicas
	// (used for the singular-vector estimates u and v).
	AggregationMean
	// AggregationOnlyFirstReplica takes the first replica's value as
	// authoritative (used for the precision/covariance matrices).
	AggregationOnlyFirstReplica
)

// String returns the policy name.
func (a Aggregation) String() string {
	switch a {
	case AggregationNone:
		return "none"
	case AggregationMean:
		return "mean"
	case AggregationOnlyFirstReplica:
		return "only_first_replica"
	default:
		return "unknown"
	}
}

// Parameter represents a persistent parameter of a layer: a named tensor
// state cell with an assignment primitive and replica-aggregation metadata.
//
// Trainable parameters (weights, biases) and non-trainable state (singular
// vectors, precision matrices) share this representation; the Trainable flag
// tells an external optimizer which ones it owns.
type Parameter[B tensor.Backend] struct {
	name        string
	tensor      *tensor.Tensor[float32, B]
	trainable   bool
	aggregation Aggregation
}

// NewParameter creates a new trainable parameter with no aggregation policy.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:      name,
		tensor:    t,
		trainable: true,
	}
}

// NewState creates a non-trainable parameter carrying persistent layer state,
// tagged with the aggregation policy a distributed host should apply to it.
func NewState[B tensor.Backend](name string, t *tensor.Tensor[float32, B], agg Aggregation) *Parameter[B] {
	return &Parameter[B]{
		name:        name,
		tensor:      t,
		trainable:   false,
		aggregation: agg,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Trainable reports whether an optimizer should update this parameter.
func (p *Parameter[B]) Trainable() bool {
	return p.trainable
}

// Aggregation returns the replica-aggregation policy for this parameter.
func (p *Parameter[B]) Aggregation() Aggregation {
	return p.aggregation
}

// Assign atomically replaces the parameter's value with src's contents.
// The parameter tensor keeps its identity; subsequent reads observe the new
// value. Shapes must match.
func (p *Parameter[B]) Assign(src *tensor.Tensor[float32, B]) {
	p.tensor.Assign(src)
}
