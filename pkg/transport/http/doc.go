/*
Package http implements the HTTP transport (§6.1): a thin
net/http.ServeMux wiring HTTP requests onto routedispatch.Dispatcher and
JSON-encoding the result. It follows the teacher's own
pkg/api/health.go idiom (http.NewServeMux, &http.Server{ReadTimeout,
WriteTimeout, IdleTimeout}, method+pattern Go 1.22+ ServeMux routes)
rather than introducing a third-party router absent from the retrieved
example pack (§11.5).
*/
package http
