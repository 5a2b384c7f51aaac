package testutils

import (
	"fmt"
	"strings"
)

// GenericRequest builds a methodCall document. Each param is inserted verbatim
// inside its own <param> element.
func GenericRequest(methodName string, params ...string) string {
	var b strings.Builder
	for _, p := range params {
		b.WriteString("<param>")
		b.WriteString(p)
		b.WriteString("</param>")
	}
	return fmt.Sprintf(`<?xml version="1.0"?>
<methodCall>
  <methodName>%s</methodName>
  <params>%s</params>
</methodCall>`, methodName, b.String())
}

// NewPostRequest builds the metaWeblog.newPost call an IFTTT-style client sends.
// The blog ID is 4711 and the credentials are johndoe / s3cr3t.
func NewPostRequest(title, body string, categories, keywords []string) string {
	return GenericRequest("metaWeblog.newPost",
		"<value><int>4711</int></value>",
		"<value><string>johndoe</string></value>",
		"<value><string>s3cr3t</string></value>",
		PostStruct(title, body, categories, keywords),
	)
}

// PostStruct renders the fourth newPost parameter.
func PostStruct(title, body string, categories, keywords []string) string {
	return fmt.Sprintf(`<value>
  <struct>
    <member>
      <name>title</name>
      <value><string>%s</string></value>
    </member>
    <member>
      <name>description</name>
      <value>
        <string>
          <![CDATA[%s]]>
        </string>
      </value>
    </member>
    <member>
      <name>categories</name>
      <value><array><data>%s</data></array></value>
    </member>
    <member>
      <name>mt_keywords</name>
      <value><array><data>%s</data></array></value>
    </member>
  </struct>
</value>`, title, body, arrayValues(categories), arrayValues(keywords))
}

func arrayValues(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("<value>")
		b.WriteString(item)
		b.WriteString("</value>\n")
	}
	return b.String()
}
