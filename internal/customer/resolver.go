package customer

import (
	"context"
	"errors"
	"strings"

	"github.com/wolfman30/emi-voice-agent/pkg/logging"
)

// Keys are the correlation values a stream can carry to identify its call.
type Keys struct {
	TempCallID  string
	CallSID     string
	Phone       string
	CustomField string
}

// Source names the lookup that produced a profile.
type Source string

const (
	SourceTempCallID  Source = "temp_call_id"
	SourceCallSID     Source = "call_sid"
	SourcePhoneCache  Source = "phone_cache"
	SourcePhoneStore  Source = "phone_store"
	SourceCustomField Source = "custom_field"
)

// SessionLookup is the short-lived cache written by the dialer.
type SessionLookup interface {
	ByCallSession(ctx context.Context, id string) (*Profile, error)
	ByPhone(ctx context.Context, phone string) (*Profile, error)
}

// Repository is the durable customer store.
type Repository interface {
	FindByPhone(ctx context.Context, variants []string) (*Profile, error)
}

// Resolver finds the customer for a call. Lookups run in a fixed order and
// the first complete profile wins. A record missing required fields does not
// stop the search, but if nothing complete turns up the call fails with the
// first IncompleteError seen.
type Resolver struct {
	cache  SessionLookup
	repo   Repository
	logger *logging.Logger
}

// NewResolver builds a resolver; either backend may be nil.
func NewResolver(cache SessionLookup, repo Repository, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{cache: cache, repo: repo, logger: logger}
}

// Resolve never fabricates a customer: it returns a validated profile,
// ErrNotFound, or an error matching ErrIncomplete.
func (r *Resolver) Resolve(ctx context.Context, keys Keys) (Profile, Source, error) {
	var incomplete error
	try := func(p *Profile, err error, src Source) (Profile, bool) {
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				r.logger.Warn("customer lookup failed", "source", string(src), "error", err)
			}
			return Profile{}, false
		}
		if p == nil {
			return Profile{}, false
		}
		if verr := p.Validate(); verr != nil {
			r.logger.Warn("customer record incomplete", "source", string(src), "error", verr)
			if incomplete == nil {
				incomplete = verr
			}
			return Profile{}, false
		}
		return *p, true
	}

	if r.cache != nil {
		if id := strings.TrimSpace(keys.TempCallID); id != "" {
			found, err := r.cache.ByCallSession(ctx, id)
			if p, ok := try(found, err, SourceTempCallID); ok {
				return p, SourceTempCallID, nil
			}
		}
		if sid := strings.TrimSpace(keys.CallSID); sid != "" {
			found, err := r.cache.ByCallSession(ctx, sid)
			if p, ok := try(found, err, SourceCallSID); ok {
				return p, SourceCallSID, nil
			}
		}
	}

	if variants := PhoneVariants(keys.Phone); len(variants) > 0 {
		if r.cache != nil {
			for _, v := range variants {
				found, err := r.cache.ByPhone(ctx, v)
				if p, ok := try(found, err, SourcePhoneCache); ok {
					return withPhone(p, keys.Phone), SourcePhoneCache, nil
				}
			}
		}
		if r.repo != nil {
			found, err := r.repo.FindByPhone(ctx, variants)
			if p, ok := try(found, err, SourcePhoneStore); ok {
				return p, SourcePhoneStore, nil
			}
		}
	}

	if raw := strings.TrimSpace(keys.CustomField); raw != "" {
		if fields := ParseCustomField(raw); len(fields) > 0 {
			parsed := ProfileFromFields(fields)
			if p, ok := try(&parsed, nil, SourceCustomField); ok {
				return withPhone(p, keys.Phone), SourceCustomField, nil
			}
		}
	}

	if incomplete != nil {
		return Profile{}, "", incomplete
	}
	return Profile{}, "", ErrNotFound
}

func withPhone(p Profile, phone string) Profile {
	if p.PhoneNumber == "" {
		p.PhoneNumber = phone
	}
	return p
}
