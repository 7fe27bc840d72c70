package entities

import (
	"strings"
	"time"
)

// Registry is the singleton platform record. Every operation reads or mutates
// this one aggregate plus the campaigns keyed under it.
type Registry struct {
	Administrator  string
	FeePerAsset    uint64
	Operators      []string
	AuthorityBump  byte
	CustodyAccount string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAdministrator reports whether identity is the registry administrator.
// Evaluated fresh on every call; there is no cached authorization.
func (r Registry) IsAdministrator(identity string) bool {
	identity = strings.TrimSpace(identity)
	return identity != "" && identity == r.Administrator
}

// IsOperator reports whether identity appears in the operator roster.
func (r Registry) IsOperator(identity string) bool {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return false
	}
	for _, operator := range r.Operators {
		if operator == identity {
			return true
		}
	}
	return false
}

// ApplyRosterChange appends identity when add is true (duplicates are kept,
// repeated additions are legal) and deletes every occurrence otherwise.
// Removing the administrator or emptying the roster is accepted.
func (r *Registry) ApplyRosterChange(identity string, add bool) {
	identity = strings.TrimSpace(identity)
	if add {
		r.Operators = append(r.Operators, identity)
		return
	}
	kept := make([]string, 0, len(r.Operators))
	for _, operator := range r.Operators {
		if operator != identity {
			kept = append(kept, operator)
		}
	}
	r.Operators = kept
}

// FeeFor computes the usage fee owed for a campaign with assetCount slots.
func FeeFor(feePerAsset uint64, assetCount int) uint64 {
	return feePerAsset * uint64(assetCount)
}
