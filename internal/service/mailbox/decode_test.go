package mailbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMultipartPicksFirstPlainPart(t *testing.T) {
	raw := "From: =?UTF-8?B?QXnFn2UgWcSxbG1heg==?= <ayse@example.com>\r\n" +
		"Subject: =?UTF-8?Q?=C4=B0ade_talebi?=\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"=C3=9Cr=C3=BCn=C3=BC iade etmek istiyorum.\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>ignored</p>\r\n" +
		"--b1--\r\n"

	msg, err := Decode(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "İade talebi", msg.Subject)
	assert.Equal(t, "ayse@example.com", msg.SenderAddress)
	assert.Contains(t, msg.Sender, "Ayşe Yılmaz")
	assert.Equal(t, "Ürünü iade etmek istiyorum.", msg.Body)
	assert.Empty(t, msg.MessageID)
}

func TestDecodeSinglePartLatin1(t *testing.T) {
	raw := "From: bob@example.com\r\n" +
		"Subject: =?ISO-8859-1?Q?Caf=E9?=\r\n" +
		"Content-Type: text/plain; charset=ISO-8859-1\r\n" +
		"\r\n" +
		"Caf\xe9 au lait\r\n"

	msg, err := Decode(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Café", msg.Subject)
	assert.Equal(t, "Café au lait", msg.Body)
	assert.Equal(t, "bob@example.com", msg.SenderAddress)
}

func TestDecodeHTMLOnlyFallsBackToText(t *testing.T) {
	raw := "From: carol@example.com\r\n" +
		"Subject: html\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><body><p>Is the blue vase in stock?</p></body></html>\r\n"

	msg, err := Decode(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Is the blue vase in stock?", msg.Body)
}

func TestDecodeAttachmentOnlyHasEmptyBody(t *testing.T) {
	raw := "From: dan@example.com\r\n" +
		"Subject: invoice\r\n" +
		"Content-Type: multipart/mixed; boundary=\"b2\"\r\n" +
		"\r\n" +
		"--b2\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Disposition: attachment; filename=\"invoice.pdf\"\r\n" +
		"\r\n" +
		"%PDF-1.4\r\n" +
		"--b2--\r\n"

	msg, err := Decode(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Empty(t, msg.Body)
	assert.Equal(t, "invoice", msg.Subject)
}

func TestDecodeSkipsBrokenHeaderLine(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: hi\r\n" +
		"Broken header line without colon\r\n" +
		"\r\n" +
		"body"

	msg, err := Decode(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", msg.SenderAddress)
	assert.Equal(t, "hi", msg.Subject)
	assert.Equal(t, "body", msg.Body)
}

func TestDropBrokenHeaderLines(t *testing.T) {
	raw := "Subject: folded\r\n" +
		" continuation\r\n" +
		"no colon here\r\n" +
		" orphan continuation\r\n" +
		"X-Bad Key: v\r\n" +
		"From: a@example.com\r\n" +
		"\r\n" +
		"line one\r\n"

	want := "Subject: folded\r\n" +
		" continuation\r\n" +
		"From: a@example.com\r\n" +
		"\r\n" +
		"line one\r\n"
	assert.Equal(t, want, string(dropBrokenHeaderLines([]byte(raw))))
}
