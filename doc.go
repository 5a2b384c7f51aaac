/*
Package wphook turns a blog client's metaWeblog XML-RPC calls into plain Go
handler calls, so tools that only speak "WordPress" can drive arbitrary webhooks.

It mounts as HTTP middleware. Requests to /xmlrpc.php are decoded and answered,
requests under /wp-admin are acknowledged with an empty 200, and everything else
reaches the next handler untouched.

# Concept

A metaWeblog.newPost call becomes a domain.Document: an ordered map of the post
fields (username, password, title, description, categories, tags). The document
goes through a fixed pipeline:

  - Normalize: mt_keywords becomes tags, a JSON object description is decoded.
  - Resolve: "cat:<name>" categories select handlers from a CategoryHandlers map.
  - Authenticate: the optional Authenticator sees the credentials, which are then
    removed. An identity object it returns is stored under "user".
  - Fan out: every selected handler runs concurrently and all must succeed.
  - Relay: if the first handler's result carries a url (or a single URL category)
    it is POSTed there as a form.

Any failure answers the client with an XML-RPC fault and status 404.

# Usage

	package main

	import (
		"log"
		"net/http"

		"github.com/aretw0/wphook"
		"github.com/aretw0/wphook/pkg/domain"
	)

	func main() {
		hook, err := wphook.New(domain.CategoryHandlers{
			Handlers: map[string]domain.Handler{
				"slack": postToSlack,
				"mail":  sendMail,
			},
		})
		if err != nil {
			log.Fatal(err)
		}

		log.Fatal(http.ListenAndServe(":3000", hook.Middleware(http.NotFoundHandler())))
	}

The wphook command serves the same middleware from a YAML configuration file.
*/
package wphook
