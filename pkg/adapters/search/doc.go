/*
Package search implements ports.SearchProvider for the external information sources
consulted when a destination is not in the knowledge base.

Every provider is a thin JSON-over-HTTP client whose base URL can be overridden, which is
how the tests point them at an httptest server. Any failure (transport, status, decoding,
or an empty answer) is reported as an error wrapping domain.ErrProviderUnavailable.
*/
package search
