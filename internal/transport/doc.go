// Package transport builds the HTTP client used by the crawler.
//
// The client keeps cookies across requests, follows a bounded number of
// redirects, can add fixed headers (for example a session cookie for a site
// that requires login) to every request, and can route all traffic through
// a SOCKS5 proxy.
package transport
