package xmlrpc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
)

// ContentType is sent with every XML-RPC response.
const ContentType = "text/xml"

// FaultNotFound is the only fault code this server emits. It doubles as the HTTP status.
const FaultNotFound = http.StatusNotFound

// FaultString is the fixed fault message. Error detail never reaches the client.
const FaultString = "Request was not successful."

const successTemplate = `<?xml version="1.0"?>
<methodResponse><params><param><value>%s</value></param></params></methodResponse>`

const faultTemplate = `<?xml version="1.0"?>
<methodResponse><fault><value><struct>
  <member><name>faultCode</name><value><int>%d</int></value></member>
  <member><name>faultString</name><value><string>` + FaultString + `</string></value></member>
</struct></value></fault></methodResponse>`

// Canned value fragments for the read-only methods.
const (
	SupportedMethodsValue = "<string>" + MethodGetRecentPosts + "</string>"
	RecentPostsValue      = "<array><data></data></array>"
)

// Success renders a success response around an already escaped value fragment.
func Success(value string) []byte {
	return fmt.Appendf(nil, successTemplate, value)
}

// Fault renders a fault response with the given code.
func Fault(code int) []byte {
	return fmt.Appendf(nil, faultTemplate, code)
}

// StringValue escapes s and wraps it in a <string> element.
func StringValue(s string) string {
	var buf bytes.Buffer
	buf.WriteString("<string>")
	_ = xml.EscapeText(&buf, []byte(s))
	buf.WriteString("</string>")
	return buf.String()
}

// WriteSuccess writes a 200 success response.
func WriteSuccess(w http.ResponseWriter, value string) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(Success(value))
}

// WriteEmpty writes a 200 response with no body.
func WriteEmpty(w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
}

// WriteFault writes a fault response. The HTTP status mirrors the fault code.
func WriteFault(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(code)
	_, _ = w.Write(Fault(code))
}
