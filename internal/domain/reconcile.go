package domain

// CompositeSource tags reconciled metadata.
const CompositeSource = "composite"

// Reconcile merges metadata from several sources with worst-case semantics:
// the freshest timestamp and the weakest reliability. The source tag is always
// CompositeSource. Reconciling a single record keeps its timestamp and tier.
func Reconcile(records ...Metadata) (Metadata, error) {
	if len(records) == 0 {
		return Metadata{}, ErrNoMetadata
	}

	out := Metadata{
		Source:      CompositeSource,
		UpdatedAt:   records[0].UpdatedAt,
		Reliability: records[0].Reliability,
	}
	for _, r := range records[1:] {
		if r.UpdatedAt.After(out.UpdatedAt) {
			out.UpdatedAt = r.UpdatedAt
		}
		if r.Reliability < out.Reliability {
			out.Reliability = r.Reliability
		}
	}
	return out, nil
}
