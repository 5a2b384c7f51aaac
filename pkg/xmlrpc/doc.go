// Package xmlrpc decodes the XML-RPC method calls sent by metaWeblog clients and
// renders the fixed success and fault responses sent back to them.
//
// Only the subset of XML-RPC needed by metaWeblog.newPost is supported. Decoded
// values are normalized at this boundary (see Normalize), so callers never see the
// difference between typed and untyped scalars.
package xmlrpc
