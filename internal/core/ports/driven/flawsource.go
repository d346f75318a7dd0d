package driven

import (
	"context"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

// FlawSource retrieves CVE records from the external vulnerability
// database (OSIDB). The knowledge base core does not depend on it; it is
// consumed only by the CVE analysis feature layer.
type FlawSource interface {
	// Retrieve fetches the flaw record for a CVE id.
	// Returns domain.ErrNotFound when the flaw does not exist and
	// domain.ErrEmbargoed when it exists but embargoed retrieval is
	// disabled.
	Retrieve(ctx context.Context, cveID string) (*domain.Flaw, error)

	// ListComponentFlaws returns the flaws affecting a component.
	ListComponentFlaws(ctx context.Context, component string) ([]*domain.Flaw, error)

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error
}

// CWECatalog resolves MITRE weakness identifiers to their definitions.
type CWECatalog interface {
	// Lookup returns the catalogue entry for a CWE id, or domain.ErrNotFound.
	Lookup(ctx context.Context, cweID string) (*domain.CWEEntry, error)
}
