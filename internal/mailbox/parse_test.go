package mailbox

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseMessage_PlainText(t *testing.T) {
	raw := crlf(`From: "Billing" <billing@example.com>
To: ops@example.com
Subject: Invoice overdue
Content-Type: text/plain; charset=utf-8

Please pay invoice 42.
`)

	got, err := parseMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "Invoice overdue", got.Subject)
	assert.Equal(t, "billing@example.com", got.From)
	assert.Equal(t, "ops@example.com", got.To)
	assert.Equal(t, "Please pay invoice 42.", got.Body)
}

func TestParseMessage_NoContentTypeDefaultsToPlain(t *testing.T) {
	raw := crlf(`From: a@example.com
Subject: hi

hello there
`)

	got, err := parseMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "hello there", got.Body)
	assert.Empty(t, got.To)
}

func TestParseMessage_EncodedSubject(t *testing.T) {
	raw := crlf(`From: a@example.com
Subject: =?UTF-8?B?UmVsYXTDs3JpbyBtZW5zYWw=?=

body
`)

	got, err := parseMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "Relatório mensal", got.Subject)
}

func TestParseMessage_MultipartPrefersPlain(t *testing.T) {
	raw := crlf(`From: a@example.com
Subject: multi
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/html; charset=utf-8

<p>html version</p>
--b1
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: quoted-printable

plain =3D version
--b1--
`)

	got, err := parseMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "plain = version", got.Body)
}

func TestParseMessage_HTMLOnlyIsStripped(t *testing.T) {
	raw := crlf(`From: a@example.com
Subject: html
Content-Type: text/html; charset=utf-8

<div><b>Server down</b> &amp; paging</div><script>alert(1)</script>
`)

	got, err := parseMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "Server down & paging", got.Body)
}

func TestParseMessage_NestedBase64SkipsAttachment(t *testing.T) {
	raw := crlf(`From: a@example.com
Subject: nested
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: application/pdf
Content-Disposition: attachment; filename="x.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQK
--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: base64

aGVsbG8gZnJvbSBiYXNl
NjQ=
--inner--
--outer--
`)

	got, err := parseMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "hello from base64", got.Body)
}

func TestParseMessage_Latin1QuotedPrintable(t *testing.T) {
	raw := crlf(`From: agenda@example.com
Subject: =?ISO-8859-1?Q?Reuni=E3o?=
Content-Type: text/plain; charset=ISO-8859-1
Content-Transfer-Encoding: quoted-printable

Reuni=E3o amanh=E3 =E0s 10h
`)

	got, err := parseMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "Reunião", got.Subject)
	assert.Equal(t, "Reunião amanhã às 10h", got.Body)
	assert.True(t, utf8.ValidString(got.Body))
}

func TestParseMessage_Malformed(t *testing.T) {
	_, err := parseMessage([]byte("not a message"))
	assert.Error(t, err)
}
