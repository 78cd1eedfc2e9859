// Package fetch retrieves the audited page and, on demand, the bodies of
// referenced external scripts. The primary page fetch is the only network
// operation allowed to fail an audit; script fetches are best-effort and
// individually non-fatal.
package fetch
