// Package relay forwards the transformed result of a post to the URL it carries,
// as a fire-and-forget form-encoded POST.
package relay
