// Package backend is the HTTP client for the filing service's four JSON
// endpoints: the location tree, selection changes, image classification, and
// folder confirmation.
//
// Transport failures, non-2xx replies, and undecodable bodies are all reported
// as services.ErrNetwork (timeouts additionally match services.ErrTimeout).
// Application-level refusals (success:false) are returned as data so higher
// layers can attach their own error kind.
package backend
