package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// ErrNoLodgeAssociation is returned when none of the lookup strategies can
// associate a record with a lodge. Callers translate it to a 400-class
// NO_LODGE_ASSOCIATION decision, distinct from a plain 404.
var ErrNoLodgeAssociation = errors.New("record not associated with any lodge")

// ReverseLookup scans lodge rosters for a record id. It is the last-resort
// strategy for records written before lodge references were stored on the
// record itself.
type ReverseLookup interface {
	// FindLodgeIDByRecordID returns the id of the lodge whose member or
	// candidate roster contains recordID, or "" when no lodge does.
	FindLodgeIDByRecordID(ctx context.Context, recordID string) (string, error)
}

// LodgeStub is the embedded-document shape some legacy records use for
// their lodge reference.
type LodgeStub struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

// LodgeRef describes where a record's owning lodge may be found. Records
// were written under three shapes over the years; all three stay supported
// until a migration retires them.
type LodgeRef struct {
	// RecordID identifies the record itself, for reverse lookup.
	RecordID string

	// LodgeID is the modern direct reference.
	LodgeID string

	// Lodge is the embedded-document reference.
	Lodge *LodgeStub

	// LegacyDoc is the raw imported document for records that predate both
	// columns; it is probed for the known reference paths.
	LegacyDoc json.RawMessage
}

// Probe expressions for legacy documents, tried in order.
var legacyLodgePaths = []string{"lodgeId", "lodge._id", "lodge.id"}

// Resolver resolves a record's owning lodge id, normalizing the result.
type Resolver struct {
	lodges ReverseLookup
}

// NewResolver constructs a Resolver. lookup may be nil when callers never
// need the reverse-lookup fallback (e.g. pure unit tests).
func NewResolver(lookup ReverseLookup) *Resolver {
	return &Resolver{lodges: lookup}
}

// ResolveLodgeID extracts the owning lodge id for a record, trying the
// direct reference, the embedded document, the legacy raw document, and
// finally a reverse roster scan. All three logical shapes of the same lodge
// resolve to the same normalized id.
func (r *Resolver) ResolveLodgeID(ctx context.Context, ref LodgeRef) (string, error) {
	if id := NormalizeLodgeID(ref.LodgeID); id != "" {
		return id, nil
	}
	if ref.Lodge != nil {
		if id := NormalizeLodgeID(ref.Lodge.ID); id != "" {
			return id, nil
		}
	}
	if id := probeLegacyDoc(ref.LegacyDoc); id != "" {
		return id, nil
	}
	if r.lodges != nil && ref.RecordID != "" {
		id, err := r.lodges.FindLodgeIDByRecordID(ctx, ref.RecordID)
		if err != nil {
			return "", fmt.Errorf("reverse lodge lookup for record %s: %w", ref.RecordID, err)
		}
		if id = NormalizeLodgeID(id); id != "" {
			return id, nil
		}
	}
	return "", ErrNoLodgeAssociation
}

// probeLegacyDoc searches a raw legacy document for a lodge reference using
// the known JMESPath shapes. Unparseable documents resolve to nothing
// rather than erroring; the reverse lookup still gets its chance.
func probeLegacyDoc(doc json.RawMessage) string {
	if len(doc) == 0 {
		return ""
	}
	var data any
	if err := json.Unmarshal(doc, &data); err != nil {
		return ""
	}
	for _, expr := range legacyLodgePaths {
		got, err := jmespath.Search(expr, data)
		if err != nil {
			continue
		}
		if s, ok := got.(string); ok {
			if id := NormalizeLodgeID(s); id != "" {
				return id
			}
		}
	}
	return ""
}
