// Package transport is the HTTP layer used by the harvester.
//
// A Client carries the site-wide request settings (user agent, cookie,
// extra headers, optional SOCKS5 proxy, a shared request limiter and a body
// size cap) and decodes every response body to UTF-8 before handing it to
// the extraction code.
package transport
