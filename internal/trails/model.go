package trails

import "time"

// Trail is a paved short link. All fields are immutable after creation.
type Trail struct {
	// SequenceID is assigned by the storage sequence; TrailID is the
	// base52 encoding of it and is the only externally visible handle.
	SequenceID int64
	TrailID    string
	URL        string
	Token      string
	Lifetime   int // whole hours
	CreatedAt  time.Time
}

// VisitStats aggregates the visit ledger of a trail. Peeks are never
// included.
type VisitStats struct {
	All    int64
	Unique int64
}

// TrailInfo is the read model returned by the Info operation.
type TrailInfo struct {
	ID        string
	URL       string
	CreatedAt time.Time
	Lifetime  int
	Visits    VisitStats
}
