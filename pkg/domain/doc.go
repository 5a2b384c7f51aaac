/*
Package domain contains the core types shared by every part of wphook.

It performs no I/O.

# Key Entities

  - Document: the ordered, canonical form of a post decoded from metaWeblog.newPost.
  - Handler / Authenticator: application callbacks that receive posts and check credentials.
  - Registration: which handlers receive posts (single, authenticated, or by category).
  - Hooks: observability callbacks for requests, handlers and relays.
*/
package domain
