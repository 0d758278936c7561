// Package tickboxsdk holds the wire types of the tickbox API and a small
// client for it. The server uses the error and response types directly so
// both sides agree on the JSON shapes.
package tickboxsdk
