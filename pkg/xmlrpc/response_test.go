package xmlrpc

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type methodResponse struct {
	Params *Params `xml:"params"`
	Fault  *struct {
		Value *Value `xml:"value"`
	} `xml:"fault"`
}

func TestSuccess_IsWellFormed(t *testing.T) {
	var resp methodResponse
	require.NoError(t, xml.Unmarshal(Success(SupportedMethodsValue), &resp))
	require.NotNil(t, resp.Params)
	require.Len(t, resp.Params.Param, 1)
	assert.Equal(t, MethodGetRecentPosts, Normalize(resp.Params.Param[0].Value))

	var recent methodResponse
	require.NoError(t, xml.Unmarshal(Success(RecentPostsValue), &recent))
	require.Len(t, recent.Params.Param, 1)
	assert.Equal(t, []any{}, Normalize(recent.Params.Param[0].Value))
}

func TestFault_IsWellFormed(t *testing.T) {
	var resp methodResponse
	require.NoError(t, xml.Unmarshal(Fault(FaultNotFound), &resp))
	require.NotNil(t, resp.Fault)

	fields, ok := Normalize(resp.Fault.Value).(Fields)
	require.True(t, ok)
	code, _ := fields.Get("faultCode")
	message, _ := fields.Get("faultString")
	assert.Equal(t, int64(404), code)
	assert.Equal(t, FaultString, message)
}

func TestStringValue_Escapes(t *testing.T) {
	assert.Equal(t, "<string>a &amp; b &lt;c&gt;</string>", StringValue("a & b <c>"))
}

func TestWriteHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<value></value>")

	w = httptest.NewRecorder()
	WriteFault(w, FaultNotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<int>404</int>")

	w = httptest.NewRecorder()
	WriteEmpty(w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType, w.Header().Get("Content-Type"))
	assert.Zero(t, w.Body.Len())
}
