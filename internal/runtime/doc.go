// Package runtime implements the metaWeblog.newPost dispatch pipeline.
//
// A post flows through four stages, all request-scoped:
//
//  1. NormalizePost turns the positional params into a domain.Document.
//  2. resolve maps cat:<name> category tokens to registered handlers.
//  3. authenticate gates the post behind the resolved authenticator, if any.
//  4. fanOut runs the handlers concurrently and joins on all of them.
//
// The only shared state is the sealed registration, which is read-only.
package runtime
