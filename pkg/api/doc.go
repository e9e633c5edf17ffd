// Package api is the dispatch boundary between the host HTTP stack and the
// security pipeline. It registers specification operations as routes, wraps
// secured operations with their verification chains at registration time,
// translates security failures into RFC 7807 problem responses, and serves
// the raw specification document.
package api
