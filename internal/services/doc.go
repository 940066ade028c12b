// Package services exposes the marketplace operations as typed calls: each
// one validates its input locally, builds the path and payload, issues the
// request through the API client, and decodes the reply into domain records.
package services
