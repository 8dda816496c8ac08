// Package core contains the authflow domain contracts, entities, and the
// token lifecycle manager. Lower-level adapters must depend on this package;
// core must not depend on storage-specific or transport-specific adapters.
package core
